// Package harness provides conformance testing for the mvr engine.
//
// The harness loads a configuration, runs the engine on the headless
// backend for a fixed number of frames with scripted input, and checks the
// recorded frame trace against the ordering guarantees of the frame loop.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: configs/desk.yaml
//	frames: 3
//	app: recording
//	input:
//	  - frame: 2
//	    events:
//	      - name: kbd_A_down
//	assertions:
//	  - type: frame_barrier
//	  - type: draw_count
//	    frame: 1
//	    count: 3
//	  - type: event_delivered
//	    event: kbd_A_down
//	    frame: 2
//
// The config path is relative to the scenario file. Input uses the script
// format of the input package and is registered after the configured
// devices, so its events are aggregated after theirs.
//
// # Assertion Types
//
//   - pre_draw_once: exactly one pre-draw per frame, before any draw
//   - swap_after_draws: each thread swaps once per frame, after its draws
//   - frame_barrier: every swap of frame f precedes pre-draw of f+1
//   - context_init_once: one context initialization per thread, before drawing
//   - draw_count: the number of draw calls in frame
//   - event_delivered: event reaches pre-draw, in frame when given
//   - frame_count: the number of frames run
//
// # Deterministic Testing
//
// Time is the logical frame clock and the trace is normalized before it is
// stored, so equivalent runs produce byte-identical golden files even
// though render threads interleave differently on every run.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/desk.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
