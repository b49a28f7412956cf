package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mvr/internal/trace"
)

// marshalEvents converts event names to canonical JSON TEXT for storage.
func marshalEvents(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := trace.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}
	return string(data), nil
}

// unmarshalEvents parses the events column. An empty array yields nil so
// round-tripped records compare equal to freshly observed ones.
func unmarshalEvents(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return names, nil
}
