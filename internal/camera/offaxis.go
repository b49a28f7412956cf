package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// OffAxis is a head-tracked camera looking through a fixed physical screen.
//
// The screen is described by three of its corners in room coordinates. The
// projection is an asymmetric frustum from the eye position through the
// screen rectangle, so the image stays registered with the physical display
// as the head moves.
type OffAxis struct {
	topLeft     mgl64.Vec3
	bottomLeft  mgl64.Vec3
	bottomRight mgl64.Vec3
	near        float64
	far         float64
	interocular float64
	eye         Eye

	head mgl64.Mat4
}

// OffAxisConfig describes an OffAxis camera.
type OffAxisConfig struct {
	TopLeft     mgl64.Vec3
	BottomLeft  mgl64.Vec3
	BottomRight mgl64.Vec3
	Near        float64
	Far         float64
	Interocular float64
	Eye         Eye
}

// DefaultOffAxisConfig returns a 1.6x1.0 screen one unit in front of the
// origin, facing +Z, with a 6.5cm interocular distance.
func DefaultOffAxisConfig() OffAxisConfig {
	return OffAxisConfig{
		TopLeft:     mgl64.Vec3{-0.8, 0.5, -1},
		BottomLeft:  mgl64.Vec3{-0.8, -0.5, -1},
		BottomRight: mgl64.Vec3{0.8, -0.5, -1},
		Near:        0.01,
		Far:         100,
		Interocular: 0.065,
		Eye:         Cyclops,
	}
}

// NewOffAxis creates a camera with an identity head frame.
func NewOffAxis(cfg OffAxisConfig) *OffAxis {
	return &OffAxis{
		topLeft:     cfg.TopLeft,
		bottomLeft:  cfg.BottomLeft,
		bottomRight: cfg.BottomRight,
		near:        cfg.Near,
		far:         cfg.Far,
		interocular: cfg.Interocular,
		eye:         cfg.Eye,
		head:        mgl64.Ident4(),
	}
}

func (c *OffAxis) UpdateHeadTrackingFrame(frame mgl64.Mat4) { c.head = frame }

func (c *OffAxis) HeadFrame() mgl64.Mat4 { return c.head }

func (c *OffAxis) Eye() Eye { return c.eye }

func (c *OffAxis) Projection() mgl64.Mat4 { return c.ProjectionForEye(c.eye) }

func (c *OffAxis) View() mgl64.Mat4 { return c.ViewForEye(c.eye) }

// EyePosition returns the eye position in room coordinates: the head frame
// applied to a fixed lateral offset.
func (c *OffAxis) EyePosition(eye Eye) mgl64.Vec3 {
	offset := 0.0
	switch eye {
	case Left:
		offset = -c.interocular / 2
	case Right:
		offset = c.interocular / 2
	}
	return c.head.Mul4x1(mgl64.Vec4{offset, 0, 0, 1}).Vec3()
}

// screenBasis returns the screen's right, up and normal unit vectors.
func (c *OffAxis) screenBasis() (vr, vu, vn mgl64.Vec3) {
	vr = c.bottomRight.Sub(c.bottomLeft).Normalize()
	vu = c.topLeft.Sub(c.bottomLeft).Normalize()
	vn = vr.Cross(vu).Normalize()
	return vr, vu, vn
}

func (c *OffAxis) ProjectionForEye(eye Eye) mgl64.Mat4 {
	pe := c.EyePosition(eye)
	vr, vu, vn := c.screenBasis()

	va := c.bottomLeft.Sub(pe)
	vb := c.bottomRight.Sub(pe)
	vc := c.topLeft.Sub(pe)

	d := -va.Dot(vn)
	if d <= 0 {
		// eye on or behind the screen plane
		d = c.near
	}
	scale := c.near / d

	l := vr.Dot(va) * scale
	r := vr.Dot(vb) * scale
	b := vu.Dot(va) * scale
	t := vu.Dot(vc) * scale

	return mgl64.Frustum(l, r, b, t, c.near, c.far)
}

func (c *OffAxis) ViewForEye(eye Eye) mgl64.Mat4 {
	pe := c.EyePosition(eye)
	vr, vu, vn := c.screenBasis()

	rot := mgl64.Mat4FromCols(
		vr.Vec4(0),
		vu.Vec4(0),
		vn.Vec4(0),
		mgl64.Vec4{0, 0, 0, 1},
	).Transpose()
	return rot.Mul4(mgl64.Translate3D(-pe[0], -pe[1], -pe[2]))
}
