// Package engine implements the mvr render coordination core.
//
// The engine owns every window and its render thread, the logical frame
// clock, and the per-thread resource table. It drives one cycle per frame:
// collect input, evaluate the shutdown policy, advance the clock, run
// pre-draw, then let every render thread draw its viewports and swap.
//
// ARCHITECTURE:
//
// Control goroutine:
// The caller of Run. It polls devices, windows and the inbox in that order,
// calls PostInitialization and DoUserInputAndPreDrawComputation, applies
// head tracking and is the only writer of the clock. With GLFW it must be
// the main OS thread.
//
// Render threads:
// One goroutine per window, locked to an OS thread for its whole life. It
// makes the window's context current, initializes context state once, then
// waits for frame commands. For each command it draws every (viewport,
// camera) pair and swaps its own window.
//
// Frame barrier:
// 1. Control sends the frame command to every thread after pre-draw returns
// 2. Each thread replies after its swap
// 3. Control waits for all replies before collecting input for the next frame
//
// The channel operations are the happens-before edges; render threads never
// share state with each other.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Synchronized time is frame * tick. NEVER use wall-clock time for anything
// that reaches application callbacks or traces.
//
// Failure Handling:
// Panics on any thread are recovered, the loop stops, every thread is
// joined, windows are destroyed, and Run returns a *RuntimeError.
package engine
