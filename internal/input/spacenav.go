package input

import "errors"

// ErrSpaceNavUnsupported is returned by NewSpaceNav: this build has no
// space navigator driver.
var ErrSpaceNavUnsupported = errors.New("input: space navigator support is not built in")

// NewSpaceNav always fails with ErrSpaceNavUnsupported.
func NewSpaceNav(name string) (Device, error) {
	return nil, ErrSpaceNavUnsupported
}

// MustSpaceNav is for programs that require the device. It panics because
// the device is unavailable.
func MustSpaceNav(name string) Device {
	d, err := NewSpaceNav(name)
	if err != nil {
		panic(name + ": " + err.Error())
	}
	return d
}
