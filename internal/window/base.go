package window

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/mvr/internal/camera"
)

// Base carries the backend-independent part of a Window: settings,
// viewports and cameras. Backends embed *Base.
type Base struct {
	settings  Settings
	viewports []Rect2D
	cameras   []camera.Camera
}

// NewBase copies settings and binds cameras to the resolved viewports.
// The camera count must equal the viewport count.
func NewBase(settings Settings, cameras []camera.Camera) (*Base, error) {
	s := settings.Clone()
	vps := s.ResolvedViewports()
	if len(cameras) != len(vps) {
		return nil, fmt.Errorf("window %q: %d cameras for %d viewports", s.Title, len(cameras), len(vps))
	}
	return &Base{
		settings:  s,
		viewports: vps,
		cameras:   append([]camera.Camera(nil), cameras...),
	}, nil
}

func (b *Base) UpdateHeadTrackingForAllViewports(frame mgl64.Mat4) {
	for _, c := range b.cameras {
		c.UpdateHeadTrackingFrame(frame)
	}
}

func (b *Base) StereoType() StereoType { return b.settings.StereoType }

func (b *Base) NumViewports() int { return len(b.viewports) }

// Viewport returns viewport n in pixels. Panics if n is out of range.
func (b *Base) Viewport(n int) Rect2D {
	b.checkIndex(n)
	return b.viewports[n]
}

// Camera returns the camera bound to viewport n. Panics if n is out of range.
func (b *Base) Camera(n int) camera.Camera {
	b.checkIndex(n)
	return b.cameras[n]
}

// Settings returns a copy of the creation settings.
func (b *Base) Settings() Settings { return b.settings.Clone() }

func (b *Base) checkIndex(n int) {
	if n < 0 || n >= len(b.viewports) {
		panic(fmt.Sprintf("window %q: viewport index %d out of range [0, %d)", b.settings.Title, n, len(b.viewports)))
	}
}

// DefaultCameraConfigs returns one off-axis camera config per resolved
// viewport of s. Side-by-side and quad-buffered windows with two viewports
// get a left and a right eye.
func DefaultCameraConfigs(s Settings) []camera.OffAxisConfig {
	n := len(s.ResolvedViewports())
	perEye := n == 2 && (s.StereoType == StereoSideBySide || s.StereoType == StereoQuadBuffered)
	cfgs := make([]camera.OffAxisConfig, n)
	for i := range cfgs {
		cfgs[i] = camera.DefaultOffAxisConfig()
		if perEye {
			cfgs[i].Eye = camera.Left
			if i == 1 {
				cfgs[i].Eye = camera.Right
			}
		}
	}
	return cfgs
}

// DefaultCameras builds cameras from DefaultCameraConfigs.
func DefaultCameras(s Settings) []camera.Camera {
	cfgs := DefaultCameraConfigs(s)
	cams := make([]camera.Camera, len(cfgs))
	for i, cfg := range cfgs {
		cams[i] = camera.NewOffAxis(cfg)
	}
	return cams
}
