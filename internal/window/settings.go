package window

import (
	"fmt"
	"strings"
)

// StereoType is the method used to compose left and right eye images into
// one window's output.
type StereoType int

const (
	StereoMono StereoType = iota
	// StereoQuadBuffered draws each eye into its own back buffer. Without
	// configured viewports it gets two full-window viewports, left then right.
	StereoQuadBuffered
	StereoCheckerboard
	StereoInterlacedColumns
	StereoInterlacedRows
	StereoSideBySide
)

var stereoNames = map[StereoType]string{
	StereoMono:              "mono",
	StereoQuadBuffered:      "quad-buffered",
	StereoCheckerboard:      "checkerboard",
	StereoInterlacedColumns: "interlaced-columns",
	StereoInterlacedRows:    "interlaced-rows",
	StereoSideBySide:        "side-by-side",
}

func (s StereoType) String() string {
	if name, ok := stereoNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stereo(%d)", int(s))
}

// IsStereo reports whether the window renders two eyes.
func (s StereoType) IsStereo() bool { return s != StereoMono }

// ParseStereoType parses the names produced by StereoType.String.
// Matching is case-insensitive and accepts underscores for dashes.
func ParseStereoType(name string) (StereoType, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if n == "" {
		return StereoMono, nil
	}
	for st, s := range stereoNames {
		if s == n {
			return st, nil
		}
	}
	return StereoMono, fmt.Errorf("unknown stereo type %q", name)
}

// Rect2D is a viewport rectangle. When Normalized is set the fields are
// fractions of the window size, otherwise pixels. Origin is bottom-left.
type Rect2D struct {
	X, Y          float64
	Width, Height float64
	Normalized    bool
}

// Pixels resolves r against a window of the given size.
func (r Rect2D) Pixels(width, height int) Rect2D {
	if !r.Normalized {
		return r
	}
	return Rect2D{
		X:      r.X * float64(width),
		Y:      r.Y * float64(height),
		Width:  r.Width * float64(width),
		Height: r.Height * float64(height),
	}
}

// Settings describes a requested window. It is copied into the window at
// creation and never changes afterwards.
type Settings struct {
	Width  int
	Height int
	XPos   int
	YPos   int
	Title  string

	Resizable   bool
	RGBBits     int
	AlphaBits   int
	DepthBits   int
	StencilBits int
	StereoType  StereoType
	MSAASamples int

	Framed          bool
	FullScreen      bool
	Visible         bool
	UseGPUAffinity  bool
	UseDebugContext bool

	// Viewports are bound one-to-one to cameras. Empty means derive from
	// the stereo type, see ResolvedViewports.
	Viewports []Rect2D
}

// DefaultSettings returns a framed, visible 960x600 mono window.
func DefaultSettings() Settings {
	return Settings{
		Width:          960,
		Height:         600,
		Title:          "mvr",
		Resizable:      true,
		RGBBits:        8,
		AlphaBits:      8,
		DepthBits:      24,
		StencilBits:    8,
		StereoType:     StereoMono,
		Framed:         true,
		Visible:        true,
		UseGPUAffinity: true,
	}
}

// Clone returns a deep copy so the caller's viewport slice is not shared.
func (s Settings) Clone() Settings {
	c := s
	if s.Viewports != nil {
		c.Viewports = append([]Rect2D(nil), s.Viewports...)
	}
	return c
}

// ResolvedViewports returns the viewports in pixels. Without configured
// viewports a side-by-side window gets a left and a right half, a
// quad-buffered window the full window once per eye, and every other stereo
// type a single full-window viewport.
func (s Settings) ResolvedViewports() []Rect2D {
	if len(s.Viewports) > 0 {
		out := make([]Rect2D, len(s.Viewports))
		for i, r := range s.Viewports {
			out[i] = r.Pixels(s.Width, s.Height)
		}
		return out
	}

	w, h := float64(s.Width), float64(s.Height)
	switch s.StereoType {
	case StereoSideBySide:
		return []Rect2D{
			{X: 0, Y: 0, Width: w / 2, Height: h},
			{X: w / 2, Y: 0, Width: w / 2, Height: h},
		}
	case StereoQuadBuffered:
		full := Rect2D{X: 0, Y: 0, Width: w, Height: h}
		return []Rect2D{full, full}
	}
	return []Rect2D{{X: 0, Y: 0, Width: w, Height: h}}
}
