package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mvr/internal/testutil"
	"github.com/roach88/mvr/internal/trace"
)

const stereoConfig = `
engine:
  frame_rate: 100
windows:
  - title: mono
  - title: sbs
    stereo_type: side-by-side
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_MinimalScenario(t *testing.T) {
	testutil.QuietLogs(t)
	scenario := &Scenario{
		Name:        "minimal",
		Description: "One window, one frame",
		Config:      writeConfig(t, minimalConfig),
		Frames:      1,
		Assertions: []Assertion{
			{Type: AssertFrameCount, Count: 1},
			{Type: AssertDrawCount, Frame: 1, Count: 1},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "minimal", result.Scenario)
	assert.Equal(t, int64(1), result.Frames)
	assert.Len(t, result.Digest, 64)

	// context_init, post_init, pre_draw, draw, swap, release, shutdown
	require.Len(t, result.Trace, 7)
	assert.Equal(t, trace.StageContextInit, result.Trace[0].Stage)
	assert.Equal(t, trace.StageShutdown, result.Trace[6].Stage)
	assert.Len(t, result.Observed(), 7)
}

func TestRun_StereoScenarioWithInput(t *testing.T) {
	testutil.QuietLogs(t)
	scenario, err := ParseScenario([]byte(`
name: stereo
description: "Mono and side-by-side windows with scripted input"
config: placeholder
frames: 3
input:
  - frame: 1
    events:
      - name: Wand_Btn_down
  - frame: 3
    events:
      - name: Joy_X
        scalar: 0.5
assertions:
  - type: pre_draw_once
  - type: swap_after_draws
  - type: frame_barrier
  - type: context_init_once
  - type: draw_count
    frame: 2
    count: 3
  - type: event_delivered
    event: Wand_Btn_down
    frame: 1
  - type: event_delivered
    event: Joy_X
    frame: 3
  - type: frame_count
    count: 3
`))
	require.NoError(t, err)
	scenario.Config = writeConfig(t, stereoConfig)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(3), result.Frames)

	pre := trace.Filter(result.Trace, trace.StagePreDraw)
	require.Len(t, pre, 3)
	assert.Equal(t, []string{"Wand_Btn_down"}, pre[0].Events)
	assert.Nil(t, pre[1].Events)
	assert.Equal(t, int64(20_000_000), pre[1].TimeNanos)
}

func TestRun_FailingAssertionsReported(t *testing.T) {
	testutil.QuietLogs(t)
	scenario := &Scenario{
		Name:        "failing",
		Description: "Expects more than happens",
		Config:      writeConfig(t, minimalConfig),
		Frames:      2,
		Assertions: []Assertion{
			{Type: AssertFrameCount, Count: 5},
			{Type: AssertEventDelivered, Event: "never"},
			{Type: AssertFrameBarrier},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Expected: 5 frames")
	assert.Contains(t, result.Errors[1], "event never delivered")
}

func TestRun_DigestIsDeterministic(t *testing.T) {
	testutil.QuietLogs(t)
	cfg := writeConfig(t, stereoConfig)
	scenario := &Scenario{
		Name:        "repeat",
		Description: "Same scenario twice",
		Config:      cfg,
		Frames:      4,
		Assertions:  []Assertion{{Type: AssertFrameBarrier}},
	}

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ConfigErrors(t *testing.T) {
	testutil.QuietLogs(t)
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "schema violation",
			config:  "windows: []\n",
			wantErr: "failed to load config",
		},
		{
			name: "too many cameras",
			config: `
windows:
  - title: mono
    cameras:
      - eye: left
      - eye: right
`,
			wantErr: "1 viewports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{
				Name:        tt.name,
				Description: "broken config",
				Config:      writeConfig(t, tt.config),
				Frames:      1,
				Assertions:  []Assertion{{Type: AssertFrameBarrier}},
			}
			_, err := Run(context.Background(), scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
