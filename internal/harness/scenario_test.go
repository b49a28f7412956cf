package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
windows:
  - title: main
`

func writeScenario(t *testing.T, scenario string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.yaml"), []byte(minimalConfig), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: valid
description: "A valid scenario"
config: main.yaml
frames: 2
input:
  - frame: 1
    events:
      - name: kbd_A_down
assertions:
  - type: frame_barrier
  - type: draw_count
    frame: 1
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, int64(2), scenario.Frames)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "main.yaml"), scenario.Config, "config resolved relative to scenario")
	require.Len(t, scenario.Input, 1)
	assert.Equal(t, "kbd_A_down", scenario.Input[0].Events[0].Name)
	assert.Len(t, scenario.Assertions, 2)
}

func TestLoadScenario_MissingConfigFile(t *testing.T) {
	path := writeScenario(t, `
name: missing
description: "Points at a config that does not exist"
config: nowhere.yaml
frames: 1
assertions:
  - type: frame_barrier
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\nconfig: c\nframes: 1\nassertions: [{type: frame_barrier}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nconfig: c\nframes: 1\nassertions: [{type: frame_barrier}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing config",
			yaml:    "name: x\ndescription: d\nframes: 1\nassertions: [{type: frame_barrier}]\n",
			wantErr: "config is required",
		},
		{
			name:    "zero frames",
			yaml:    "name: x\ndescription: d\nconfig: c\nassertions: [{type: frame_barrier}]\n",
			wantErr: "frames must be positive",
		},
		{
			name:    "unknown app",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\napp: teapot\nassertions: [{type: frame_barrier}]\n",
			wantErr: `unknown app "teapot"`,
		},
		{
			name:    "input frame zero",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\ninput: [{frame: 0, events: [{name: a}]}]\nassertions: [{type: frame_barrier}]\n",
			wantErr: "frames start at 1",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "draw_count without frame",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertions: [{type: draw_count, count: 1}]\n",
			wantErr: "frame is required for draw_count",
		},
		{
			name:    "event_delivered without event",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertions: [{type: event_delivered}]\n",
			wantErr: "event is required for event_delivered",
		},
		{
			name:    "negative frame_count",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertions: [{type: frame_count, count: -1}]\n",
			wantErr: "count must be non-negative for frame_count",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "empty assertion type",
			yaml:    "name: x\ndescription: d\nconfig: c\nframes: 1\nassertions: [{frame: 1}]\n",
			wantErr: "assertions[0]: type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadExampleScenarios(t *testing.T) {
	tests := []struct {
		file           string
		wantName       string
		wantApp        string
		wantFrames     int64
		wantAssertions int
	}{
		{"desk_frame_cycle.yaml", "desk_frame_cycle", "", 3, 8},
		{"desk_demo_head_tracking.yaml", "desk_demo_head_tracking", AppDemo, 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("../../testdata/scenarios", tt.file))
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, scenario.Name)
			assert.Equal(t, tt.wantApp, scenario.App)
			assert.Equal(t, tt.wantFrames, scenario.Frames)
			assert.Len(t, scenario.Assertions, tt.wantAssertions)
		})
	}
}
