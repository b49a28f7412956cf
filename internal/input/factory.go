package input

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/datafile"
)

// Device kinds accepted in configuration.
const (
	KindAnalog   = "vrpn_analog"
	KindSpaceNav = "spacenav"
	KindScript   = "script"
	KindNull     = "null"
)

// DialTimeout bounds connecting to a remote analog server unless
// "<name>_DialTimeout" sets it in seconds.
var DialTimeout = 5 * time.Second

// FromConfig creates the device described by spec. Device settings are read
// from m under "<name>_<Key>":
//
//	vrpn_analog: InputDeviceVRPNAnalogName, EventsToGenerate, DialTimeout
//	script:      ScriptFile, StartFrame, Loop
//
// Any configuration problem is logged and yields Null so the engine keeps
// running. Malformed optional settings are logged and ignored.
func FromConfig(ctx context.Context, spec config.DeviceConfig, m *config.Map, resolver *datafile.Resolver) Device {
	log := slog.With("device", spec.Name, "kind", spec.Kind)

	switch spec.Kind {
	case KindAnalog:
		url, ok := m.Lookup(spec.Name + "_InputDeviceVRPNAnalogName")
		if !ok || url == "" {
			log.Warn("analog device has no remote name, device disabled")
			return Null{}
		}
		names, _ := m.Strings(spec.Name + "_EventsToGenerate")
		if len(names) == 0 {
			log.Warn("analog device generates no events")
		}
		timeout := DialTimeout
		if secs, ok := m.Float(spec.Name + "_DialTimeout"); ok {
			if secs > 0 {
				timeout = time.Duration(secs * float64(time.Second))
			} else {
				log.Warn("dial timeout must be positive, using default", "dial_timeout", secs)
			}
		}
		dctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		src, err := DialAnalog(dctx, url)
		if err != nil {
			log.Warn("analog device unavailable, device disabled", "error", err)
			return Null{}
		}
		log.Info("analog device connected", "remote", url, "channels", len(names))
		return NewAnalog(spec.Name, names, src)

	case KindSpaceNav:
		if _, err := NewSpaceNav(spec.Name); err != nil {
			log.Warn("space navigator unavailable, device disabled", "error", err)
		}
		return Null{}

	case KindScript:
		file, ok := m.Lookup(spec.Name + "_ScriptFile")
		if !ok || file == "" {
			log.Warn("script device has no script file, device disabled")
			return Null{}
		}
		path, found := resolver.Find(file)
		if !found {
			log.Warn("script file not found, device disabled", "file", file, "search_paths", resolver.SearchPaths())
			return Null{}
		}
		s, err := LoadScript(path)
		if err != nil {
			log.Warn("script device disabled", "file", path, "error", err)
			return Null{}
		}
		var opts []ScriptOption
		if start, ok := m.Int(spec.Name + "_StartFrame"); ok {
			if start < 1 {
				log.Warn("script start frame must be at least 1, ignored", "start_frame", start)
			} else {
				opts = append(opts, ScriptStartAt(int64(start)))
			}
		}
		if loop, ok := m.Bool(spec.Name + "_Loop"); ok && loop {
			opts = append(opts, ScriptLoop())
		}
		log.Info("script device loaded", "file", path, "frames", len(s.Frames))
		return NewScriptDevice(spec.Name, s, opts...)

	case KindNull:
		return Null{}
	}

	log.Warn("unknown device kind, device disabled")
	return Null{}
}
