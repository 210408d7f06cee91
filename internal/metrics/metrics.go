// Package metrics is the backend-neutral instrumentation facade used by the
// pipeline. The process installs one Backend at startup (SetBackend); until
// then every call goes to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the pipeline.
const (
	StepTotal           = "etl_step_total"
	RecordsTotal        = "etl_records_total"
	StepDurationSeconds = "etl_step_duration_seconds"
)

// Step statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric events. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. A nil b restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush asks the installed backend to submit buffered data.
func Flush() error { return current().Flush() }

// RecordStep counts one finished pipeline stage and its duration.
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, l)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordRecords counts n rows of the given kind (for example
// "stg_matches" or "fact_player_match").
func RecordRecords(kind string, n int64) {
	if n <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
}
