package input

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/datafile"
	"github.com/roach88/mvr/internal/event"
)

// fakeSource replays queued samples on each Mainloop call.
type fakeSource struct {
	queue [][]float64
	err   error
}

func (f *fakeSource) push(ch ...float64) { f.queue = append(f.queue, ch) }

func (f *fakeSource) Mainloop(handler func([]float64)) error {
	for _, s := range f.queue {
		handler(s)
	}
	f.queue = nil
	return f.err
}

// staticDevice emits the same events every poll.
type staticDevice []event.Event

func (d staticDevice) PollForInput(events []event.Event) []event.Event {
	return append(events, d...)
}

func TestAnalog_EdgeTriggered(t *testing.T) {
	src := &fakeSource{}
	a := NewAnalog("Wand", []string{"Joy_X", "Joy_Y"}, src)

	src.push(0.0, 0.5)
	events := a.PollForInput(nil)
	require.Len(t, events, 1, "channel 0 still at its initial value")
	assert.Equal(t, "Joy_Y", events[0].Name())
	assert.Equal(t, 1, events[0].ID())
	assert.Equal(t, "Wand", events[0].Source())
	v, ok := events[0].Scalar()
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	src.push(0.0, 0.5)
	assert.Empty(t, a.PollForInput(nil), "unchanged sample emits nothing")

	src.push(0.25, 0.5)
	src.push(0.25, -1.0)
	events = a.PollForInput(nil)
	assert.Equal(t, []string{"Joy_X", "Joy_Y"}, event.Names(events))

	assert.Empty(t, a.PollForInput(nil), "no sample, no events")
}

func TestAnalog_ExtraChannelsAreIgnored(t *testing.T) {
	src := &fakeSource{}
	a := NewAnalog("Wand", []string{"Joy_X"}, src)

	src.push(1, 2, 3)
	events := a.PollForInput(nil)
	assert.Equal(t, []string{"Joy_X"}, event.Names(events))

	assert.Equal(t, 1, a.NumChannels())
	assert.Equal(t, "Joy_X", a.EventName(0))
	assert.Equal(t, UnknownAnalogEvent, a.EventName(1))
	assert.Equal(t, UnknownAnalogEvent, a.EventName(-1))
	assert.Equal(t, "VRPNAnalogDevice_Unknown_Event", a.EventName(2))
}

func TestAnalog_SourceErrorKeepsPolling(t *testing.T) {
	src := &fakeSource{err: errors.New("link down")}
	a := NewAnalog("Wand", []string{"Joy_X"}, src)

	src.push(0.75)
	events := a.PollForInput([]event.Event{event.New("existing", "w")})
	assert.Equal(t, []string{"existing", "Joy_X"}, event.Names(events))
}

func TestNull_AppendsNothing(t *testing.T) {
	in := []event.Event{event.New("a", "x")}
	assert.Equal(t, in, Null{}.PollForInput(in))
}

func TestAggregator_OrderAndFrameStamp(t *testing.T) {
	devA := staticDevice{event.New("a1", "A"), event.New("a2", "A")}
	devB := staticDevice{event.New("b1", "B")}
	win := staticDevice{event.New("kbd_Q_down", "window0")}

	agg := NewAggregator()
	events := agg.Collect(7, []Device{devA, Null{}, devB, win})

	assert.Equal(t, []string{"a1", "a2", "b1", "kbd_Q_down"}, event.Names(events))
	for _, e := range events {
		assert.Equal(t, int64(7), e.Frame())
	}
}

func TestAggregator_HazardLastWriteWins(t *testing.T) {
	devA := staticDevice{event.NewScalar("Trigger", 1, "A", 0)}
	devB := staticDevice{event.NewScalar("Trigger", 2, "B", 0)}

	agg := NewAggregator()
	events := agg.Collect(1, []Device{devA, devB})
	require.Len(t, events, 2)

	latest, ok := event.Latest(events, "Trigger")
	require.True(t, ok)
	assert.Equal(t, "B", latest.Source())
	assert.True(t, agg.warned["Trigger"])

	agg.Collect(2, []Device{devA, devB})
	assert.Len(t, agg.warned, 1)
}

func TestSpaceNav(t *testing.T) {
	d, err := NewSpaceNav("nav")
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrSpaceNavUnsupported)

	assert.Panics(t, func() { MustSpaceNav("nav") })
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(`
frames:
  - frame: 2
    events:
      - name: Head_Move
        mat4: [1,0,0,0, 0,1,0,1.7, 0,0,1,0, 0,0,0,1]
      - name: Pointer
        vec3: [1, 2, 3]
`))
	require.NoError(t, err)

	d := NewScriptDevice("replay", s)
	assert.Empty(t, d.PollForInput(nil))

	events := d.PollForInput(nil)
	require.Len(t, events, 2)
	m, ok := events[0].Mat4()
	require.True(t, ok)
	assert.Equal(t, 1.7, m.At(1, 3))
	assert.Equal(t, "replay", events[0].Source())
	vec, ok := events[1].Vec3()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, vec)

	assert.Empty(t, d.PollForInput(nil))
}

func TestScriptDevice_StartAndLoop(t *testing.T) {
	s := &Script{Frames: []ScriptFrame{
		{Frame: 1, Events: []ScriptEvent{{Name: "a"}}},
		{Frame: 2, Events: []ScriptEvent{{Name: "b"}}},
	}}
	polls := func(d *ScriptDevice, n int) [][]string {
		out := make([][]string, n)
		for i := range out {
			out[i] = event.Names(d.PollForInput(nil))
		}
		return out
	}

	tests := []struct {
		name string
		opts []ScriptOption
		want [][]string
	}{
		{"plain", nil, [][]string{{"a"}, {"b"}, {}, {}, {}}},
		{"start at 3", []ScriptOption{ScriptStartAt(3)}, [][]string{{}, {}, {"a"}, {"b"}, {}}},
		{"start below 1 ignored", []ScriptOption{ScriptStartAt(0)}, [][]string{{"a"}, {"b"}, {}, {}, {}}},
		{"loop", []ScriptOption{ScriptLoop()}, [][]string{{"a"}, {"b"}, {"a"}, {"b"}, {"a"}}},
		{"start and loop", []ScriptOption{ScriptStartAt(2), ScriptLoop()}, [][]string{{}, {"a"}, {"b"}, {"a"}, {"b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewScriptDevice("keys", s, tt.opts...)
			assert.Equal(t, tt.want, polls(d, 5))
		})
	}
}

func TestParseScript_Invalid(t *testing.T) {
	tests := map[string]string{
		"frame zero":    "frames:\n  - frame: 0\n",
		"no name":       "frames:\n  - frame: 1\n    events:\n      - scalar: 1\n",
		"two payloads":  "frames:\n  - frame: 1\n    events:\n      - {name: x, scalar: 1, vec3: [1,2,3]}\n",
		"short vec3":    "frames:\n  - frame: 1\n    events:\n      - {name: x, vec3: [1,2]}\n",
		"unknown field": "frames:\n  - frame: 1\n    evnts: []\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestFromConfig_Script(t *testing.T) {
	m := config.NewMap(map[string]any{"Keys_ScriptFile": "keys.yaml"})
	d := FromConfig(context.Background(), config.DeviceConfig{Name: "Keys", Kind: KindScript}, m, datafile.New("testdata"))

	sd, ok := d.(*ScriptDevice)
	require.True(t, ok, "got %T", d)
	assert.Equal(t, []string{"kbd_A_down"}, event.Names(sd.PollForInput(nil)))
	assert.Equal(t, []string{"Wand_X", "kbd_A_up"}, event.Names(sd.PollForInput(nil)))
}

func TestFromConfig_ScriptSettings(t *testing.T) {
	resolver := datafile.New("testdata")
	tests := []struct {
		name     string
		settings map[string]any
		want     [][]string
	}{
		{"start frame", map[string]any{"Keys_StartFrame": 2},
			[][]string{{}, {"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {}}},
		{"loop", map[string]any{"Keys_Loop": true},
			[][]string{{"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {"kbd_A_down"}, {"Wand_X", "kbd_A_up"}}},
		{"loop off", map[string]any{"Keys_Loop": "off"},
			[][]string{{"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {}, {}}},
		{"malformed start frame ignored", map[string]any{"Keys_StartFrame": "soon"},
			[][]string{{"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {}, {}}},
		{"zero start frame ignored", map[string]any{"Keys_StartFrame": 0},
			[][]string{{"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {}, {}}},
		{"malformed loop ignored", map[string]any{"Keys_Loop": "sometimes"},
			[][]string{{"kbd_A_down"}, {"Wand_X", "kbd_A_up"}, {}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := map[string]any{"Keys_ScriptFile": "keys.yaml"}
			for k, v := range tt.settings {
				settings[k] = v
			}
			d := FromConfig(context.Background(), config.DeviceConfig{Name: "Keys", Kind: KindScript}, config.NewMap(settings), resolver)
			require.IsType(t, &ScriptDevice{}, d)

			got := make([][]string, len(tt.want))
			for i := range got {
				got[i] = event.Names(d.PollForInput(nil))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromConfig_DegradesToNull(t *testing.T) {
	resolver := datafile.New(t.TempDir())
	tests := []struct {
		name string
		spec config.DeviceConfig
		m    *config.Map
	}{
		{"analog without remote", config.DeviceConfig{Name: "Wand", Kind: KindAnalog}, config.NewMap(nil)},
		{"analog unreachable", config.DeviceConfig{Name: "Wand", Kind: KindAnalog},
			config.NewMap(map[string]any{"Wand_InputDeviceVRPNAnalogName": "ws://127.0.0.1:1/none"})},
		{"analog unreachable with dial timeout", config.DeviceConfig{Name: "Wand", Kind: KindAnalog},
			config.NewMap(map[string]any{"Wand_InputDeviceVRPNAnalogName": "ws://127.0.0.1:1/none", "Wand_DialTimeout": 0.5})},
		{"analog unreachable with bad dial timeout", config.DeviceConfig{Name: "Wand", Kind: KindAnalog},
			config.NewMap(map[string]any{"Wand_InputDeviceVRPNAnalogName": "ws://127.0.0.1:1/none", "Wand_DialTimeout": "fast"})},
		{"spacenav", config.DeviceConfig{Name: "Nav", Kind: KindSpaceNav}, config.NewMap(nil)},
		{"script without file", config.DeviceConfig{Name: "Keys", Kind: KindScript}, config.NewMap(nil)},
		{"script missing", config.DeviceConfig{Name: "Keys", Kind: KindScript},
			config.NewMap(map[string]any{"Keys_ScriptFile": "nope.yaml"})},
		{"null", config.DeviceConfig{Name: "N", Kind: KindNull}, config.NewMap(nil)},
		{"unknown", config.DeviceConfig{Name: "J", Kind: "joystick"}, config.NewMap(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromConfig(context.Background(), tt.spec, tt.m, resolver)
			assert.Equal(t, Null{}, d)
		})
	}
}

func analogServer(t *testing.T, samples ...string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, s := range samples {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(s)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSAnalogSource(t *testing.T) {
	url := analogServer(t,
		`{"channels":[0.5, 0]}`,
		`not json`,
		`{"channels":[0.5, 1]}`,
	)

	src, err := DialAnalog(context.Background(), url)
	require.NoError(t, err)

	a := NewAnalog("Wand", []string{"Joy_X", "Joy_Y"}, src)
	var events []event.Event
	require.Eventually(t, func() bool {
		events = a.PollForInput(events)
		return len(events) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"Joy_X", "Joy_Y"}, event.Names(events))
	assert.NoError(t, a.Close())
}

func TestFromConfig_AnalogOverWebsocket(t *testing.T) {
	url := analogServer(t, `{"channels":[0.1]}`)
	m := config.NewMap(map[string]any{
		"Wand_InputDeviceVRPNAnalogName": url,
		"Wand_EventsToGenerate":          "Joy_X Joy_Y",
		"Wand_DialTimeout":               2,
	})

	d := FromConfig(context.Background(), config.DeviceConfig{Name: "Wand", Kind: KindAnalog}, m, datafile.New())
	a, ok := d.(*Analog)
	require.True(t, ok, "got %T", d)
	defer a.Close()
	assert.Equal(t, 2, a.NumChannels())

	require.Eventually(t, func() bool {
		return len(a.PollForInput(nil)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
