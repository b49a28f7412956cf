// Package datafile resolves logical data file names against an ordered list
// of search paths.
//
// A Resolver is built once at startup and passed to whatever needs file
// lookup (device scripts, the demo app, the resolve command). It is a pure
// lookup service.
package datafile

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// Resolver holds the search path list.
type Resolver struct {
	mu    sync.RWMutex
	paths []string

	lookupEnv func(string) (string, bool)
	stat      func(string) (os.FileInfo, error)
}

// New creates a Resolver with the given search paths, added in order.
func New(paths ...string) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv, stat: os.Stat}
	for _, p := range paths {
		r.AddSearchPath(p)
	}
	return r
}

// AddSearchPath appends p after substituting $(NAME) environment variables
// and expanding a leading ~.
func (r *Resolver) AddSearchPath(p string) {
	expanded := r.replaceEnvVars(p)
	if home, err := homedir.Expand(expanded); err == nil {
		expanded = home
	} else {
		slog.Debug("data path home expansion failed", "path", expanded, "error", err)
	}

	r.mu.Lock()
	r.paths = append(r.paths, expanded)
	r.mu.Unlock()
}

// SearchPaths returns a copy of the search paths in lookup order.
func (r *Resolver) SearchPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}

// Find returns the first existing file named filename. filename is
// itself checked first so absolute and working-directory paths resolve
// directly. ok is false when nothing matches.
func (r *Resolver) Find(filename string) (string, bool) {
	name := r.replaceEnvVars(filename)
	if r.exists(name) {
		return name, true
	}
	if filepath.IsAbs(name) {
		return "", false
	}
	for _, dir := range r.SearchPaths() {
		candidate := filepath.Join(dir, name)
		if r.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) exists(p string) bool {
	info, err := r.stat(p)
	return err == nil && !info.IsDir()
}

func (r *Resolver) replaceEnvVars(in string) string {
	return replaceEnvVars(in, r.lookupEnv)
}

var envVarPattern = regexp.MustCompile(`\$\(([^)]*)\)`)

// ReplaceEnvVars replaces every $(NAME) in in with the decygified value of
// the environment variable NAME, or the empty string when NAME is unset.
func ReplaceEnvVars(in string) string {
	return replaceEnvVars(in, os.LookupEnv)
}

func replaceEnvVars(in string, lookup func(string) (string, bool)) string {
	return envVarPattern.ReplaceAllStringFunc(in, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		v, ok := lookup(name)
		if !ok {
			return ""
		}
		return DecygifyPath(v)
	})
}

// DecygifyPath rewrites /cygdrive/<drive>/rest as <drive>:/rest. Any other
// path, including one that already starts with a drive letter, is returned
// unchanged.
func DecygifyPath(in string) string {
	const prefix = "/cygdrive/"
	if !strings.HasPrefix(in, prefix) {
		return in
	}
	rest := in[len(prefix):]
	if rest == "" {
		return in
	}
	drive, tail, _ := strings.Cut(rest, "/")
	if len(drive) != 1 {
		return in
	}
	return drive + ":/" + path.Clean("/" + tail)[1:]
}
