package trace

import (
	"log/slog"
	"sync"
)

// Recorder keeps records in memory and assigns sequence numbers.
type Recorder struct {
	mu      sync.Mutex
	next    int64
	records []Record
}

// NewRecorder creates an empty Recorder. The first record gets seq 1.
func NewRecorder() *Recorder {
	return &Recorder{next: 1}
}

// Observe stamps r with the next sequence number and stores it.
func (rec *Recorder) Observe(r Record) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	r.Seq = rec.next
	rec.next++
	if r.Events != nil {
		r.Events = append([]string(nil), r.Events...)
	}
	rec.records = append(rec.records, r)
}

// Records returns a copy of the records in sequence order.
func (rec *Recorder) Records() []Record {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Record(nil), rec.records...)
}

// Len returns the number of records.
func (rec *Recorder) Len() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.records)
}

// Tee forwards every record to each observer in order.
func Tee(observers ...Observer) Observer {
	return tee(observers)
}

type tee []Observer

func (t tee) Observe(r Record) {
	for _, o := range t {
		o.Observe(r)
	}
}

// Log writes every record to slog at debug level.
var Log Observer = logObserver{}

type logObserver struct{}

func (logObserver) Observe(r Record) {
	slog.Debug("engine step",
		"frame", r.Frame,
		"stage", string(r.Stage),
		"thread", r.Thread,
		"viewport", r.Viewport,
		"events", len(r.Events),
	)
}
