// Package event defines the immutable input Event value shared by input
// devices, windows and the application pre-draw callback.
//
// Events are produced by independent sources (analog remotes, scripted
// replays, window-system keyboard and mouse) and concatenated once per
// frame by the engine's control thread. Within a frame, events from one
// source keep their enqueue order; events from different sources are
// causally unordered.
package event
