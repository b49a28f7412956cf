// Package config loads the engine configuration: windows with their
// cameras, input devices, data search paths and the flat settings map read
// by device constructors.
//
// Files may be YAML (.yaml, .yml) or TOML (.toml). Every file is checked
// against an embedded CUE schema before it is decoded, so unknown keys and
// out-of-range values are reported with their path instead of being
// silently ignored.
package config

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/window"
)

// Shutdown policy names accepted in the engine section.
const (
	ShutdownAnyWindowClosed  = "any_window_closed"
	ShutdownAllWindowsClosed = "all_windows_closed"
)

// Config is the decoded configuration file.
type Config struct {
	Engine    EngineConfig   `yaml:"engine" toml:"engine"`
	DataPaths []string       `yaml:"data_paths" toml:"data_paths"`
	Windows   []WindowConfig `yaml:"windows" toml:"windows"`
	Devices   []DeviceConfig `yaml:"devices" toml:"devices"`
	Settings  map[string]any `yaml:"settings" toml:"settings"`

	// Path is the file the config was loaded from, empty for inline configs.
	Path string `yaml:"-" toml:"-"`
}

// EngineConfig tunes the frame loop.
type EngineConfig struct {
	FrameRate         float64 `yaml:"frame_rate" toml:"frame_rate"`
	MaxFrames         int64   `yaml:"max_frames" toml:"max_frames"`
	Shutdown          string  `yaml:"shutdown" toml:"shutdown"`
	QuitEvent         string  `yaml:"quit_event" toml:"quit_event"`
	HeadTrackingEvent string  `yaml:"head_tracking_event" toml:"head_tracking_event"`
}

// DefaultFrameRate is used when engine.frame_rate is unset.
const DefaultFrameRate = 60.0

// TickLength returns the synchronized time advanced per frame.
func (e EngineConfig) TickLength() time.Duration {
	rate := e.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// WindowConfig is one window entry. Pointer fields distinguish "unset" from
// an explicit false or zero so defaults from window.DefaultSettings apply.
type WindowConfig struct {
	Title           string         `yaml:"title" toml:"title"`
	X               int            `yaml:"x" toml:"x"`
	Y               int            `yaml:"y" toml:"y"`
	Width           int            `yaml:"width" toml:"width"`
	Height          int            `yaml:"height" toml:"height"`
	Resizable       *bool          `yaml:"resizable" toml:"resizable"`
	RGBBits         *int           `yaml:"rgb_bits" toml:"rgb_bits"`
	AlphaBits       *int           `yaml:"alpha_bits" toml:"alpha_bits"`
	DepthBits       *int           `yaml:"depth_bits" toml:"depth_bits"`
	StencilBits     *int           `yaml:"stencil_bits" toml:"stencil_bits"`
	StereoType      string         `yaml:"stereo_type" toml:"stereo_type"`
	MSAASamples     int            `yaml:"msaa_samples" toml:"msaa_samples"`
	Framed          *bool          `yaml:"framed" toml:"framed"`
	FullScreen      bool           `yaml:"fullscreen" toml:"fullscreen"`
	Visible         *bool          `yaml:"visible" toml:"visible"`
	UseGPUAffinity  *bool          `yaml:"use_gpu_affinity" toml:"use_gpu_affinity"`
	UseDebugContext bool           `yaml:"use_debug_context" toml:"use_debug_context"`
	Viewports       []RectConfig   `yaml:"viewports" toml:"viewports"`
	Cameras         []CameraConfig `yaml:"cameras" toml:"cameras"`
}

// RectConfig is a viewport rectangle.
type RectConfig struct {
	X          float64 `yaml:"x" toml:"x"`
	Y          float64 `yaml:"y" toml:"y"`
	Width      float64 `yaml:"width" toml:"width"`
	Height     float64 `yaml:"height" toml:"height"`
	Normalized bool    `yaml:"normalized" toml:"normalized"`
}

// CameraConfig describes an off-axis camera. Unset corners and planes fall
// back to camera.DefaultOffAxisConfig.
type CameraConfig struct {
	TopLeft     []float64 `yaml:"top_left" toml:"top_left"`
	BottomLeft  []float64 `yaml:"bottom_left" toml:"bottom_left"`
	BottomRight []float64 `yaml:"bottom_right" toml:"bottom_right"`
	Near        float64   `yaml:"near" toml:"near"`
	Far         float64   `yaml:"far" toml:"far"`
	Interocular *float64  `yaml:"interocular" toml:"interocular"`
	Eye         string    `yaml:"eye" toml:"eye"`
}

// DeviceConfig names an input device and its kind. Device-specific keys
// live in the settings map under "<name>_<Key>".
type DeviceConfig struct {
	Name string `yaml:"name" toml:"name"`
	Kind string `yaml:"kind" toml:"kind"`
}

// Map returns the settings as a config.Map.
func (c *Config) Map() *Map {
	return NewMap(c.Settings)
}

// WindowSettings converts the entry into window.Settings.
func (w WindowConfig) WindowSettings() (window.Settings, error) {
	s := window.DefaultSettings()
	if w.Title != "" {
		s.Title = w.Title
	}
	s.XPos, s.YPos = w.X, w.Y
	if w.Width > 0 {
		s.Width = w.Width
	}
	if w.Height > 0 {
		s.Height = w.Height
	}
	setBool(&s.Resizable, w.Resizable)
	setInt(&s.RGBBits, w.RGBBits)
	setInt(&s.AlphaBits, w.AlphaBits)
	setInt(&s.DepthBits, w.DepthBits)
	setInt(&s.StencilBits, w.StencilBits)
	setBool(&s.Framed, w.Framed)
	setBool(&s.Visible, w.Visible)
	setBool(&s.UseGPUAffinity, w.UseGPUAffinity)
	s.FullScreen = w.FullScreen
	s.UseDebugContext = w.UseDebugContext
	s.MSAASamples = w.MSAASamples

	st, err := window.ParseStereoType(w.StereoType)
	if err != nil {
		return window.Settings{}, err
	}
	s.StereoType = st

	for _, r := range w.Viewports {
		s.Viewports = append(s.Viewports, window.Rect2D{
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Normalized: r.Normalized,
		})
	}
	return s, nil
}

// BuildCameras returns one camera per resolved viewport of s. Configured
// cameras override window.DefaultCameraConfigs in order.
func (w WindowConfig) BuildCameras(s window.Settings) ([]camera.Camera, error) {
	cfgs := window.DefaultCameraConfigs(s)
	if len(w.Cameras) > len(cfgs) {
		return nil, fmt.Errorf("window %q: %d cameras configured for %d viewports", s.Title, len(w.Cameras), len(cfgs))
	}

	cams := make([]camera.Camera, len(cfgs))
	for i := range cfgs {
		if i < len(w.Cameras) {
			if err := w.Cameras[i].apply(&cfgs[i]); err != nil {
				return nil, fmt.Errorf("window %q camera %d: %w", s.Title, i, err)
			}
		}
		cams[i] = camera.NewOffAxis(cfgs[i])
	}
	return cams, nil
}

func (c CameraConfig) apply(cfg *camera.OffAxisConfig) error {
	for _, corner := range []struct {
		name string
		src  []float64
		dst  *mgl64.Vec3
	}{
		{"top_left", c.TopLeft, &cfg.TopLeft},
		{"bottom_left", c.BottomLeft, &cfg.BottomLeft},
		{"bottom_right", c.BottomRight, &cfg.BottomRight},
	} {
		if corner.src == nil {
			continue
		}
		if len(corner.src) != 3 {
			return fmt.Errorf("%s needs 3 components, got %d", corner.name, len(corner.src))
		}
		*corner.dst = mgl64.Vec3{corner.src[0], corner.src[1], corner.src[2]}
	}
	if c.Near > 0 {
		cfg.Near = c.Near
	}
	if c.Far > 0 {
		cfg.Far = c.Far
	}
	if c.Interocular != nil {
		cfg.Interocular = *c.Interocular
	}
	if c.Eye != "" {
		eye, err := camera.ParseEye(c.Eye)
		if err != nil {
			return err
		}
		cfg.Eye = eye
	}
	return nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
