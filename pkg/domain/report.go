package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Violation reports a failed invariant for one instance of its context type.
// Message carries the witness values that made the predicate fail so the
// failure can be explained without re-querying the graph.
type Violation struct {
	Invariant string     `json:"invariant"`
	Entity    EntityType `json:"entity"`
	EntityID  string     `json:"entity_id"`
	Message   string     `json:"message"`
}

// Result aggregates violations from invariant evaluation.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Invalid reports whether the result carries at least one violation.
func (r Result) Invalid() bool { return len(r.Violations) > 0 }

// RunStatus is the terminal state of a validation run.
type RunStatus string

// Validation run outcomes.
const (
	// RunValid means every invariant held for every instance.
	RunValid RunStatus = "valid"
	// RunInvalid means at least one invariant was violated.
	RunInvalid RunStatus = "invalid"
	// RunCancelled means the run was aborted between invariant evaluations;
	// the violation set is partial.
	RunCancelled RunStatus = "cancelled"
)

// Report is the single output of a validation run. Checked counts the
// invariants that were fully evaluated, which matters for cancelled runs.
type Report struct {
	RunID      string        `json:"run_id"`
	Status     RunStatus     `json:"status"`
	Violations []Violation   `json:"violations,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Checked    int           `json:"checked"`
}

// Valid reports whether the run completed with an empty violation set.
func (r Report) Valid() bool { return r.Status == RunValid }

// ErrNotImplemented marks a derivation or invariant that the source model
// leaves undefined. Callers get this sentinel instead of an invented value.
var ErrNotImplemented = errors.New("not implemented by the source model")

// LoadError reports a malformed or incomplete snapshot (unknown entity type,
// duplicate identifier, dangling reference). Loading never leaves a partially
// populated store behind.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string { return "snapshot load: " + e.Message }

// CyclicDerivationError reports a dependency cycle among derived attributes.
// Derivations are non-recursive by construction, so a cycle signals an
// ambiguous model, not a case to iterate.
type CyclicDerivationError struct {
	Cycle []string
}

func (e *CyclicDerivationError) Error() string {
	return fmt.Sprintf("cyclic derivation involving [%s]", strings.Join(e.Cycle, ", "))
}

// UnresolvedDerivationError reports a derivation whose required navigation
// yielded no value, e.g. a rent with no linked bedroom.
type UnresolvedDerivationError struct {
	Entity    EntityType
	EntityID  string
	Attribute string
	Message   string
}

func (e *UnresolvedDerivationError) Error() string {
	return fmt.Sprintf("derive %s.%s for %s: %s", e.Entity, e.Attribute, e.EntityID, e.Message)
}
