package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mvr/internal/input"
)

// Scenario defines a conformance test scenario.
// A scenario runs one configuration for a fixed number of frames and
// asserts on the resulting frame trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the path of the engine configuration.
	// Relative paths are resolved against the scenario file location.
	Config string `yaml:"config"`

	// Frames is the number of frames to run.
	Frames int64 `yaml:"frames"`

	// App selects the application: "recording" (default) or "demo".
	App string `yaml:"app,omitempty"`

	// Input lists scripted events by frame.
	Input []input.ScriptFrame `yaml:"input,omitempty"`

	// Assertions validate the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Frame is the frame checked by draw_count and, when set, event_delivered.
	Frame int64 `yaml:"frame,omitempty"`

	// Count is the expected number for draw_count and frame_count.
	Count int `yaml:"count,omitempty"`

	// Event is the event name for event_delivered.
	Event string `yaml:"event,omitempty"`
}

// Assertion type constants.
const (
	AssertPreDrawOnce     = "pre_draw_once"
	AssertSwapAfterDraws  = "swap_after_draws"
	AssertFrameBarrier    = "frame_barrier"
	AssertContextInitOnce = "context_init_once"
	AssertDrawCount       = "draw_count"
	AssertEventDelivered  = "event_delivered"
	AssertFrameCount      = "frame_count"
)

// Application names accepted in the app field.
const (
	AppRecording = "recording"
	AppDemo      = "demo"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	if _, err := os.Stat(scenario.Config); err != nil {
		return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.Config)
	}

	return scenario, nil
}

// ParseScenario decodes a scenario without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config == "" {
		return fmt.Errorf("config is required")
	}

	if s.Frames <= 0 {
		return fmt.Errorf("frames must be positive")
	}

	switch s.App {
	case "", AppRecording, AppDemo:
	default:
		return fmt.Errorf("unknown app %q", s.App)
	}

	script := input.Script{Frames: s.Input}
	if err := script.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPreDrawOnce, AssertSwapAfterDraws, AssertFrameBarrier, AssertContextInitOnce:
	case AssertDrawCount:
		if a.Frame <= 0 {
			return fmt.Errorf("assertions[%d]: frame is required for draw_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for draw_count", index)
		}
	case AssertEventDelivered:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_delivered", index)
		}
	case AssertFrameCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for frame_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
