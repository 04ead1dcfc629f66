package core

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRecorder observes finished validation runs.
type MetricsRecorder interface {
	ObserveRun(status string, violations int, duration time.Duration)
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes run counters and timing totals via expvar,
// for deployments that prefer process-local metrics without an external
// scrape target. Durations are aggregated in milliseconds per status.
type ExpvarMetricsRecorder struct {
	name       string
	mu         sync.Mutex
	runs       map[string]int64
	violations int64
	durations  map[string]float64
}

// ExpvarMetricsSnapshot is a read-only copy of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	Runs            map[string]int64   `json:"runs_total"`
	ViolationsTotal int64              `json:"violations_total"`
	DurationsMS     map[string]float64 `json:"durations_ms_total"`
	RecordedAt      time.Time          `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder published
// under the supplied name. When name is empty, a unique one is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("validation_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		runs:      make(map[string]int64),
		durations: make(map[string]float64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// ObserveRun records one finished run.
func (r *ExpvarMetricsRecorder) ObserveRun(status string, violations int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[status]++
	r.violations += int64(violations)
	r.durations[status] += float64(duration.Milliseconds())
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		Runs:            make(map[string]int64, len(r.runs)),
		ViolationsTotal: r.violations,
		DurationsMS:     make(map[string]float64, len(r.durations)),
		RecordedAt:      time.Now().UTC(),
	}
	for k, v := range r.runs {
		snap.Runs[k] = v
	}
	for k, v := range r.durations {
		snap.DurationsMS[k] = v
	}
	return snap
}
