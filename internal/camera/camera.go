// Package camera holds per-viewport projection and view state.
//
// A Camera is written only by the control thread (head tracking updates
// during pre-draw) and read by rendering threads afterwards; the engine's
// frame barrier orders the two phases, so cameras carry no locks.
package camera

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Eye selects which eye position a projection is computed for.
type Eye int

const (
	// Cyclops is the midpoint between the eyes, used for mono output.
	Cyclops Eye = iota
	// Left is offset by half the interocular distance to the left.
	Left
	// Right is offset by half the interocular distance to the right.
	Right
)

func (e Eye) String() string {
	switch e {
	case Cyclops:
		return "cyclops"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("eye(%d)", int(e))
	}
}

// ParseEye parses "cyclops", "left" or "right". The empty string is Cyclops.
func ParseEye(s string) (Eye, error) {
	switch s {
	case "", "cyclops", "mono":
		return Cyclops, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Cyclops, fmt.Errorf("unknown eye %q", s)
	}
}

// Camera is the state a draw callback needs to render one viewport.
type Camera interface {
	// UpdateHeadTrackingFrame replaces the tracked head transform.
	UpdateHeadTrackingFrame(frame mgl64.Mat4)

	// HeadFrame returns the last head transform.
	HeadFrame() mgl64.Mat4

	// Eye returns the eye this camera renders by default.
	Eye() Eye

	// Projection returns the projection matrix for Eye().
	Projection() mgl64.Mat4

	// View returns the view matrix for Eye().
	View() mgl64.Mat4

	// ProjectionForEye returns the projection matrix for the given eye,
	// used by quad-buffered windows that draw both eyes in one viewport.
	ProjectionForEye(eye Eye) mgl64.Mat4

	// ViewForEye returns the view matrix for the given eye.
	ViewForEye(eye Eye) mgl64.Mat4
}
