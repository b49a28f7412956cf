package input

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mvr/internal/event"
)

// Script is a recorded sequence of events keyed by the 1-based poll
// number at which they are emitted.
//
//	frames:
//	  - frame: 1
//	    events:
//	      - name: kbd_A_down
//	      - name: Wand_X
//	        scalar: 0.5
//	  - frame: 3
//	    events:
//	      - name: Head_Move
//	        mat4: [1,0,0,0, 0,1,0,1.7, 0,0,1,0, 0,0,0,1]
type Script struct {
	Frames []ScriptFrame `yaml:"frames"`
}

// ScriptFrame lists the events emitted on one poll.
type ScriptFrame struct {
	Frame  int64         `yaml:"frame"`
	Events []ScriptEvent `yaml:"events"`
}

// ScriptEvent is one event. At most one payload field may be set; mat4 is
// row-major.
type ScriptEvent struct {
	Name   string    `yaml:"name"`
	Scalar *float64  `yaml:"scalar,omitempty"`
	Vec3   []float64 `yaml:"vec3,omitempty"`
	Mat4   []float64 `yaml:"mat4,omitempty"`
	ID     *int      `yaml:"id,omitempty"`
}

// ParseScript decodes and checks a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks frame numbers and event payloads.
func (s *Script) Validate() error {
	for _, f := range s.Frames {
		if f.Frame < 1 {
			return fmt.Errorf("script frame %d: frames start at 1", f.Frame)
		}
		for _, e := range f.Events {
			if _, err := e.toEvent(""); err != nil {
				return fmt.Errorf("script frame %d: %w", f.Frame, err)
			}
		}
	}
	return nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

func (e ScriptEvent) toEvent(source string) (event.Event, error) {
	if e.Name == "" {
		return event.Event{}, fmt.Errorf("event without name")
	}
	set := 0
	for _, present := range []bool{e.Scalar != nil, e.Vec3 != nil, e.Mat4 != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return event.Event{}, fmt.Errorf("event %q: more than one payload", e.Name)
	}

	switch {
	case e.Scalar != nil:
		id := -1
		if e.ID != nil {
			id = *e.ID
		}
		return event.NewScalar(e.Name, *e.Scalar, source, id), nil
	case e.Vec3 != nil:
		if len(e.Vec3) != 3 {
			return event.Event{}, fmt.Errorf("event %q: vec3 needs 3 values, got %d", e.Name, len(e.Vec3))
		}
		return event.NewVec3(e.Name, mgl64.Vec3{e.Vec3[0], e.Vec3[1], e.Vec3[2]}, source), nil
	case e.Mat4 != nil:
		if len(e.Mat4) != 16 {
			return event.Event{}, fmt.Errorf("event %q: mat4 needs 16 values, got %d", e.Name, len(e.Mat4))
		}
		var m mgl64.Mat4
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				m.Set(r, c, e.Mat4[r*4+c])
			}
		}
		return event.NewMat4(e.Name, m, source), nil
	}
	return event.New(e.Name, source), nil
}

// ScriptDevice replays a Script, one poll per frame.
type ScriptDevice struct {
	name   string
	polls  int64
	frames map[int64][]event.Event
	last   int64

	offset int64 // polls before script frame 1
	loop   bool
}

// ScriptOption configures a ScriptDevice.
type ScriptOption func(*ScriptDevice)

// ScriptStartAt emits script frame 1 on poll start. Values below 1 are
// ignored.
func ScriptStartAt(start int64) ScriptOption {
	return func(d *ScriptDevice) {
		if start >= 1 {
			d.offset = start - 1
		}
	}
}

// ScriptLoop restarts the script after its last scripted frame.
func ScriptLoop() ScriptOption {
	return func(d *ScriptDevice) {
		d.loop = true
	}
}

// NewScriptDevice builds a device emitting s under source name.
func NewScriptDevice(name string, s *Script, opts ...ScriptOption) *ScriptDevice {
	d := &ScriptDevice{name: name, frames: make(map[int64][]event.Event)}
	for _, opt := range opts {
		opt(d)
	}
	for _, f := range s.Frames {
		for _, se := range f.Events {
			e, err := se.toEvent(name)
			if err != nil {
				continue
			}
			d.frames[f.Frame] = append(d.frames[f.Frame], e)
		}
		d.last = max(d.last, f.Frame)
	}
	return d
}

// PollForInput appends the events scheduled for this poll.
func (d *ScriptDevice) PollForInput(events []event.Event) []event.Event {
	d.polls++
	f := d.polls - d.offset
	if f < 1 {
		return events
	}
	if d.loop && d.last > 0 {
		f = (f-1)%d.last + 1
	}
	return append(events, d.frames[f]...)
}
