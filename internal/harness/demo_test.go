package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mvr/internal/testutil"
	"github.com/roach88/mvr/internal/trace"
)

// TestExampleScenarios runs every scenario shipped in testdata/scenarios.
// They double as end-to-end checks of the engine on the headless backend
// and as reference examples of the scenario format.
func TestExampleScenarios(t *testing.T) {
	testutil.QuietLogs(t)
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, scenario.Frames, result.Frames)
			require.NoError(t, trace.CheckAll(result.Observed()))
		})
	}
}

func TestDemoScenario_HeadTracking(t *testing.T) {
	testutil.QuietLogs(t)
	scenario, err := LoadScenario("../../testdata/scenarios/desk_demo_head_tracking.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	pre := trace.Filter(result.Trace, trace.StagePreDraw)
	require.Len(t, pre, 2)
	assert.Equal(t, []string{"Head_Move"}, pre[0].Events)
	assert.Equal(t, []string{"Wand_X"}, pre[1].Events)

	// Every render thread released its context at shutdown.
	assert.Len(t, trace.Filter(result.Trace, trace.StageRelease), 2)
}
