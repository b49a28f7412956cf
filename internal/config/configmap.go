package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Map is a flat key-value store of device and application settings such as
// "Wand_InputDeviceVRPNAnalogName" or "Wand_EventsToGenerate".
//
// Typed getters never fail loudly: on a missing key or a parse failure they
// return ok=false and leave the decision about defaults to the caller.
type Map struct {
	values map[string]string
}

// NewMap builds a Map, stringifying non-string values.
func NewMap(values map[string]any) *Map {
	m := &Map{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = stringify(v)
	}
	return m
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}

// Set stores value under key.
func (m *Map) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
}

// Lookup returns the raw string for key.
func (m *Map) Lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Get returns the string for key, or def when it is missing.
func (m *Map) Get(key, def string) string {
	if v, ok := m.Lookup(key); ok {
		return v
	}
	return def
}

// Int parses key as an integer.
func (m *Map) Int(key string) (int, bool) {
	s, ok := m.Lookup(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		slog.Warn("config value is not an integer", "key", key, "value", s)
		return 0, false
	}
	return v, true
}

// Float parses key as a float64.
func (m *Map) Float(key string) (float64, bool) {
	s, ok := m.Lookup(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		slog.Warn("config value is not a number", "key", key, "value", s)
		return 0, false
	}
	return v, true
}

// Bool parses key as a boolean ("true", "1", "on", "yes" and negations).
func (m *Map) Bool(key string) (bool, bool) {
	s, ok := m.Lookup(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	slog.Warn("config value is not a boolean", "key", key, "value", s)
	return false, false
}

// Strings splits the value of key into tokens separated by whitespace,
// commas or semicolons.
func (m *Map) Strings(key string) ([]string, bool) {
	s, ok := m.Lookup(key)
	if !ok {
		return nil, false
	}
	return SplitTokens(s), true
}

// Vec3 parses three numbers from the value of key.
func (m *Map) Vec3(key string) (mgl64.Vec3, bool) {
	var out mgl64.Vec3
	if !m.floats(key, out[:]) {
		return mgl64.Vec3{}, false
	}
	return out, true
}

// Mat4 parses sixteen numbers, row-major, from the value of key.
func (m *Map) Mat4(key string) (mgl64.Mat4, bool) {
	var rows [16]float64
	if !m.floats(key, rows[:]) {
		return mgl64.Mat4{}, false
	}
	// mgl64 stores column-major
	var out mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out.Set(r, c, rows[r*4+c])
		}
	}
	return out, true
}

func (m *Map) floats(key string, dst []float64) bool {
	toks, ok := m.Strings(key)
	if !ok {
		return false
	}
	if len(toks) != len(dst) {
		slog.Warn("config value has wrong arity", "key", key, "want", len(dst), "got", len(toks))
		return false
	}
	parsed := make([]float64, len(dst))
	for i, tok := range toks {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			slog.Warn("config value is not a number list", "key", key, "token", tok)
			return false
		}
		parsed[i] = v
	}
	copy(dst, parsed)
	return true
}

// SplitTokens splits s on spaces, tabs, newlines, commas and semicolons,
// dropping empty tokens.
func SplitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', ',', ';':
			return true
		}
		return false
	})
}
