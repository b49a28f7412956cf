package event

// Latest returns the last event named name in aggregation order.
//
// When two sources emit the same name within one frame the later source
// wins. Use Hazards to detect that situation.
func Latest(events []Event, name string) (Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].name == name {
			return events[i], true
		}
	}
	return Event{}, false
}

// Hazards returns the names emitted by more than one source in events,
// in order of first conflicting occurrence.
//
// A logical event mapped from two physical devices is a configuration
// hazard: consumers only see the reconciliation done by Latest.
func Hazards(events []Event) []string {
	firstSource := make(map[string]string, len(events))
	flagged := make(map[string]bool)
	var names []string
	for _, e := range events {
		src, seen := firstSource[e.name]
		if !seen {
			firstSource[e.name] = e.source
			continue
		}
		if src != e.source && !flagged[e.name] {
			flagged[e.name] = true
			names = append(names, e.name)
		}
	}
	return names
}

// Names returns the event names in order.
func Names(events []Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.name
	}
	return names
}
