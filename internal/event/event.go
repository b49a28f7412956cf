package event

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies which payload an Event carries.
type Kind int

const (
	// KindNone is a bare named event (button press, key release).
	KindNone Kind = iota
	// KindScalar carries a single float64 (analog channel value).
	KindScalar
	// KindVec3 carries a 3-vector (pointer position, scroll delta).
	KindVec3
	// KindMat4 carries a 4x4 transform (tracker frame).
	KindMat4
)

// String returns the lower-case payload kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindScalar:
		return "scalar"
	case KindVec3:
		return "vec3"
	case KindMat4:
		return "mat4"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event describes one input occurrence.
//
// Event is a value type with unexported fields: once constructed it cannot
// be mutated, only copied. WithFrame returns a stamped copy.
type Event struct {
	name   string
	kind   Kind
	scalar float64
	vec    mgl64.Vec3
	mat    mgl64.Mat4
	source string
	id     int
	frame  int64
}

// New creates an event with no payload.
func New(name, source string) Event {
	return Event{name: name, kind: KindNone, source: source}
}

// NewScalar creates an event carrying a scalar. id is the originating
// channel or button number (-1 when not meaningful).
func NewScalar(name string, value float64, source string, id int) Event {
	return Event{name: name, kind: KindScalar, scalar: value, source: source, id: id}
}

// NewVec3 creates an event carrying a 3-vector.
func NewVec3(name string, value mgl64.Vec3, source string) Event {
	return Event{name: name, kind: KindVec3, vec: value, source: source, id: -1}
}

// NewMat4 creates an event carrying a 4x4 matrix.
func NewMat4(name string, value mgl64.Mat4, source string) Event {
	return Event{name: name, kind: KindMat4, mat: value, source: source, id: -1}
}

// Name returns the event name.
func (e Event) Name() string { return e.name }

// Kind returns the payload kind.
func (e Event) Kind() Kind { return e.kind }

// Source returns the opaque identifier of the originating device or window.
func (e Event) Source() string { return e.source }

// ID returns the channel/button id, -1 if unset.
func (e Event) ID() int { return e.id }

// Frame returns the logical frame the event was aggregated into, 0 before
// aggregation.
func (e Event) Frame() int64 { return e.frame }

// Scalar returns the scalar payload. ok is false for other kinds.
func (e Event) Scalar() (v float64, ok bool) {
	return e.scalar, e.kind == KindScalar
}

// Vec3 returns the vector payload. ok is false for other kinds.
func (e Event) Vec3() (v mgl64.Vec3, ok bool) {
	return e.vec, e.kind == KindVec3
}

// Mat4 returns the matrix payload. ok is false for other kinds.
func (e Event) Mat4() (m mgl64.Mat4, ok bool) {
	return e.mat, e.kind == KindMat4
}

// WithFrame returns a copy of e stamped with frame.
func (e Event) WithFrame(frame int64) Event {
	e.frame = frame
	return e
}

// String renders the event for logs.
func (e Event) String() string {
	switch e.kind {
	case KindScalar:
		return fmt.Sprintf("%s(%g) from %s", e.name, e.scalar, e.source)
	case KindVec3:
		return fmt.Sprintf("%s(%g,%g,%g) from %s", e.name, e.vec[0], e.vec[1], e.vec[2], e.source)
	case KindMat4:
		return fmt.Sprintf("%s(mat4) from %s", e.name, e.source)
	default:
		return fmt.Sprintf("%s from %s", e.name, e.source)
	}
}
