package config

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestMap_Scalars(t *testing.T) {
	m := NewMap(map[string]any{
		"Count":    12,
		"Padded":   " 7 ",
		"Rate":     0.5,
		"RateText": "2.5",
		"On":       true,
		"Yes":      "yes",
		"Off":      "OFF",
		"Zero":     0,
		"Word":     "many",
	})

	tests := []struct {
		name string
		get  func() (any, bool)
		want any
		ok   bool
	}{
		{"int", func() (any, bool) { return m.Int("Count") }, 12, true},
		{"int trimmed", func() (any, bool) { return m.Int("Padded") }, 7, true},
		{"int from float", func() (any, bool) { return m.Int("Rate") }, 0, false},
		{"int malformed", func() (any, bool) { return m.Int("Word") }, 0, false},
		{"int missing", func() (any, bool) { return m.Int("Nope") }, 0, false},
		{"float", func() (any, bool) { return m.Float("Rate") }, 0.5, true},
		{"float from text", func() (any, bool) { return m.Float("RateText") }, 2.5, true},
		{"float from int", func() (any, bool) { return m.Float("Count") }, 12.0, true},
		{"float malformed", func() (any, bool) { return m.Float("Word") }, 0.0, false},
		{"float missing", func() (any, bool) { return m.Float("Nope") }, 0.0, false},
		{"bool", func() (any, bool) { return m.Bool("On") }, true, true},
		{"bool yes", func() (any, bool) { return m.Bool("Yes") }, true, true},
		{"bool off", func() (any, bool) { return m.Bool("Off") }, false, true},
		{"bool zero", func() (any, bool) { return m.Bool("Zero") }, false, true},
		{"bool malformed", func() (any, bool) { return m.Bool("Word") }, false, false},
		{"bool missing", func() (any, bool) { return m.Bool("Nope") }, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.get()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMap_Vectors(t *testing.T) {
	identity := make([]any, 16)
	for i := range identity {
		identity[i] = 0
	}
	for i := 0; i < 4; i++ {
		identity[i*5] = 1
	}
	translate := []any{1, 0, 0, 4, 0, 1, 0, 5, 0, 0, 1, 6, 0, 0, 0, 1}

	m := NewMap(map[string]any{
		"Pos":       []any{1, 2.5, -3},
		"PosText":   "1; 2.5, -3",
		"Short":     []any{1, 2},
		"Long":      []any{1, 2, 3, 4},
		"NotNumber": "1 two 3",
		"Identity":  identity,
		"Translate": translate,
		"Partial":   []any{1, 0, 0, 0},
	})

	v, ok := m.Vec3("Pos")
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2.5, -3}, v)

	v, ok = m.Vec3("PosText")
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2.5, -3}, v)

	for _, key := range []string{"Short", "Long", "NotNumber", "Missing"} {
		v, ok := m.Vec3(key)
		assert.False(t, ok, key)
		assert.Equal(t, mgl64.Vec3{}, v, key)
	}

	mat, ok := m.Mat4("Identity")
	require.True(t, ok)
	assert.Equal(t, mgl64.Ident4(), mat)

	mat, ok = m.Mat4("Translate")
	require.True(t, ok)
	assert.Equal(t, mgl64.Translate3D(4, 5, 6), mat, "values are row-major")

	for _, key := range []string{"Partial", "Pos", "NotNumber", "Missing"} {
		mat, ok := m.Mat4(key)
		assert.False(t, ok, key)
		assert.Equal(t, mgl64.Mat4{}, mat, key)
	}
}

func TestMap_ParseFailuresAreLogged(t *testing.T) {
	logs := captureLogs(t)
	m := NewMap(map[string]any{
		"Wand_DialTimeout": "soon",
		"Keys_StartFrame":  "first",
		"Keys_Loop":        "maybe",
		"HeadPos":          []any{1, 2},
	})

	_, ok := m.Float("Wand_DialTimeout")
	assert.False(t, ok)
	_, ok = m.Int("Keys_StartFrame")
	assert.False(t, ok)
	_, ok = m.Bool("Keys_Loop")
	assert.False(t, ok)
	_, ok = m.Vec3("HeadPos")
	assert.False(t, ok)

	out := logs.String()
	assert.Contains(t, out, "key=Wand_DialTimeout")
	assert.Contains(t, out, "key=Keys_StartFrame")
	assert.Contains(t, out, "key=Keys_Loop")
	assert.Contains(t, out, "wrong arity")

	logs.Reset()
	_, ok = m.Float("Missing")
	assert.False(t, ok)
	assert.Empty(t, logs.String(), "a missing key is not a parse failure")
}

func TestMap_StringsAndGet(t *testing.T) {
	m := NewMap(map[string]any{
		"Wand_EventsToGenerate": "Joy_X,Joy_Y; Trigger",
		"List":                  []any{"a", 1, true},
	})
	m.Set("Added", "x")

	names, ok := m.Strings("Wand_EventsToGenerate")
	require.True(t, ok)
	assert.Equal(t, []string{"Joy_X", "Joy_Y", "Trigger"}, names)

	list, ok := m.Strings("List")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "1", "true"}, list)

	assert.Equal(t, "x", m.Get("Added", "def"))
	assert.Equal(t, "def", m.Get("Nope", "def"))

	var nilMap *Map
	_, ok = nilMap.Lookup("any")
	assert.False(t, ok)
}
