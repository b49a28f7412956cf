package cli

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/window"
	"github.com/roach88/mvr/internal/window/headless"
)

// HeadlessBackend is the backend available in every build.
const HeadlessBackend = "headless"

// Backend is an opened window system.
type Backend struct {
	Factory window.Factory

	// Policy is combined with the configured policy when the config does
	// not choose a shutdown mode. Nil adds nothing.
	Policy engine.ShutdownPolicy

	// Close releases the window system after the engine stops. May be nil.
	Close func()
}

// BackendOpener opens a backend. Openers for GUI backends must be called
// on the main thread.
type BackendOpener func() (*Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]BackendOpener{
		HeadlessBackend: func() (*Backend, error) {
			return &Backend{Factory: headless.NewFactory()}, nil
		},
	}
)

// RegisterBackend makes a backend selectable with --backend. The GUI
// backends are registered by the binary so this package stays free of cgo.
func RegisterBackend(name string, open BackendOpener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = open
}

// BackendNames returns the registered backend names, sorted.
func BackendNames() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OpenBackend opens the named backend.
func OpenBackend(name string) (*Backend, error) {
	backendsMu.RLock()
	open, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q: must be one of %v", name, BackendNames())
	}
	b, err := open()
	if err != nil {
		return nil, fmt.Errorf("open backend %s: %w", name, err)
	}
	return b, nil
}

func (b *Backend) close() {
	if b.Close != nil {
		b.Close()
	}
}
