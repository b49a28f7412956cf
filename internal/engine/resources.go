package engine

import (
	"log/slog"
	"sync"
)

// Resources is the per-render-thread state bag. GPU objects created in
// InitializeContextSpecificVars belong to exactly one context and live here
// instead of in thread-local storage.
//
// A Resources value is only touched by its own render thread, so it has no
// locking.
type Resources struct {
	thread    int
	values    map[string]any
	releasers []func()
}

func newResources(thread int) *Resources {
	return &Resources{thread: thread, values: make(map[string]any)}
}

// ThreadID returns the owning render thread.
func (r *Resources) ThreadID() int { return r.thread }

// Set stores v under key, replacing any previous value.
func (r *Resources) Set(key string, v any) {
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *Resources) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of stored values.
func (r *Resources) Len() int { return len(r.values) }

// OnRelease registers fn to run when the thread exits, with its context
// still current. Releasers run in reverse registration order.
func (r *Resources) OnRelease(fn func()) {
	r.releasers = append(r.releasers, fn)
}

// release runs the releasers and clears the bag. A panicking releaser is
// logged and does not stop the others.
func (r *Resources) release() {
	for i := len(r.releasers) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if p := recover(); p != nil {
					slog.Error("resource release panicked", "thread", r.thread, "panic", p)
				}
			}()
			r.releasers[i]()
		}()
	}
	r.releasers = nil
	clear(r.values)
}

// Lookup returns the value under key as T.
func Lookup[T any](r *Resources, key string) (T, bool) {
	v, ok := r.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// ResourceTable maps render thread ids to their Resources.
//
// Entries are created lazily the first time a thread asks for them and
// removed when the thread releases them on exit.
type ResourceTable struct {
	mu      sync.Mutex
	threads map[int]*Resources
}

// NewResourceTable creates an empty table.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{threads: make(map[int]*Resources)}
}

// ForThread returns the Resources of thread, creating them if needed.
func (t *ResourceTable) ForThread(thread int) *Resources {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.threads[thread]
	if !ok {
		r = newResources(thread)
		t.threads[thread] = r
	}
	return r
}

// Release runs the releasers of thread and removes its entry.
// Must be called on the owning thread.
func (t *ResourceTable) Release(thread int) {
	t.mu.Lock()
	r, ok := t.threads[thread]
	delete(t.threads, thread)
	t.mu.Unlock()

	if ok {
		r.release()
	}
}

// Len returns the number of live entries.
func (t *ResourceTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.threads)
}
