package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lodgecore/pkg/domain"
)

// Engine runs one validation pass: freeze the store, compute derived
// attributes to a fixed order, evaluate the invariant catalog, and assemble
// the report. The engine holds no per-run state and is safe for concurrent
// use as long as each run gets its own snapshot.
type Engine struct {
	catalog     *Catalog
	metrics     MetricsRecorder
	logger      zerolog.Logger
	parallelism int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics wires a metrics recorder observing each run.
func WithMetrics(rec MetricsRecorder) EngineOption {
	return func(e *Engine) { e.metrics = rec }
}

// WithLogger wires a logger emitting one summary event per run.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithParallelism sets the number of invariants evaluated concurrently.
// Values below two keep evaluation sequential.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) { e.parallelism = n }
}

// NewEngine constructs an engine over the given catalog. A nil catalog gets
// the default one.
func NewEngine(catalog *Catalog, opts ...EngineOption) *Engine {
	if catalog == nil {
		catalog = NewDefaultCatalog()
	}
	e := &Engine{
		catalog: catalog,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate performs a full validation run over the store. Violations are
// data and never surface as errors; anything preventing a well-formed
// derived snapshot (a derivation cycle, an unresolvable required navigation)
// aborts the run with an error. A context cancelled between invariants
// yields a partial report with RunCancelled status and no error.
func (e *Engine) Validate(ctx context.Context, store *Store) (domain.Report, error) {
	started := time.Now().UTC()
	report := domain.Report{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}

	snap := store.Snapshot()
	if err := evaluateDerived(ctx, snap); err != nil {
		e.observe(report, started, "error")
		return domain.Report{}, err
	}

	res, checked, err := e.catalog.Evaluate(ctx, snap, e.parallelism)
	report.Checked = checked
	report.Violations = res.Violations
	report.Duration = time.Since(started)
	switch {
	case err == nil:
		if res.Invalid() {
			report.Status = domain.RunInvalid
		} else {
			report.Status = domain.RunValid
		}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		report.Status = domain.RunCancelled
	default:
		e.observe(report, started, "error")
		return domain.Report{}, err
	}

	e.observe(report, started, string(report.Status))
	e.logger.Info().
		Str("run_id", report.RunID).
		Str("status", string(report.Status)).
		Int("checked", report.Checked).
		Int("violations", len(report.Violations)).
		Dur("duration", report.Duration).
		Msg("validation run finished")
	return report, nil
}

func (e *Engine) observe(report domain.Report, started time.Time, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveRun(status, len(report.Violations), time.Since(started))
}
