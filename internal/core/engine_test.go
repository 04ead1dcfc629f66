package core

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"lodgecore/pkg/domain"
)

func TestValidateValidFixture(t *testing.T) {
	engine := NewEngine(nil)
	report, err := engine.Validate(context.Background(), validStore(t))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.Status != domain.RunValid {
		t.Fatalf("expected valid run, got %s with %v", report.Status, report.Violations)
	}
	if !report.Valid() {
		t.Fatalf("report must be valid")
	}
	if report.RunID == "" {
		t.Fatalf("report must carry a run id")
	}
	if want := len(NewDefaultCatalog().Invariants()); report.Checked != want {
		t.Fatalf("expected %d checked invariants, got %d", want, report.Checked)
	}
}

func TestValidateReportsViolationsAsData(t *testing.T) {
	store := validStore(t)
	mustAdd(t, store.AddResident(domain.Resident{ID: "t-kid", Age: 16, Kind: domain.KindTenant, BedroomID: "bed-2"}))

	engine := NewEngine(nil)
	report, err := engine.Validate(context.Background(), store)
	if err != nil {
		t.Fatalf("violations must not surface as errors: %v", err)
	}
	if report.Status != domain.RunInvalid {
		t.Fatalf("expected invalid run, got %s", report.Status)
	}
	names := make(map[string]bool)
	for _, v := range report.Violations {
		names[v.Invariant] = true
	}
	for _, want := range []string{"adultTenant", "tenantRentsSomething", "tenantOccupiesRentedBedroom", "minorHasTutor"} {
		if !names[want] {
			t.Fatalf("expected %s among violations, got %v", want, report.Violations)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	store := validStore(t)
	mustAdd(t, store.AddDiscount(domain.Discount{ID: "disc-dup", RentID: "rent-1", Percentage: 20, Label: "loyalty"}))

	engine := NewEngine(nil)
	first, err := engine.Validate(context.Background(), store)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Validate(context.Background(), store)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Status != second.Status {
		t.Fatalf("statuses differ across runs: %s vs %s", first.Status, second.Status)
	}
	if len(first.Violations) != len(second.Violations) {
		t.Fatalf("violation counts differ across runs: %d vs %d", len(first.Violations), len(second.Violations))
	}
	for i := range first.Violations {
		if first.Violations[i] != second.Violations[i] {
			t.Fatalf("violation %d differs: %v vs %v", i, first.Violations[i], second.Violations[i])
		}
	}
}

func TestValidateCancelledContextYieldsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(nil)
	report, err := engine.Validate(ctx, validStore(t))
	if err != nil {
		t.Fatalf("cancellation must not surface as an error: %v", err)
	}
	if report.Status != domain.RunCancelled {
		t.Fatalf("expected cancelled run, got %s", report.Status)
	}
	if report.Checked != 0 {
		t.Fatalf("expected no invariant checked after immediate cancellation, got %d", report.Checked)
	}
}

func TestValidateAbortsOnUnresolvedDerivation(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1"}))

	engine := NewEngine(nil)
	_, err := engine.Validate(context.Background(), store)
	var unresolved *domain.UnresolvedDerivationError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedDerivationError, got %v", err)
	}
}

func TestParallelEvaluationMatchesSequential(t *testing.T) {
	store := validStore(t)
	mustAdd(t, store.AddResident(domain.Resident{ID: "t-kid", Age: 16, Kind: domain.KindTenant, BedroomID: "bed-2"}))
	snap := derivedSnapshot(t, store)

	catalog := NewDefaultCatalog()
	seq, seqChecked, err := catalog.Evaluate(context.Background(), snap, 1)
	if err != nil {
		t.Fatalf("sequential evaluation: %v", err)
	}
	par, parChecked, err := catalog.Evaluate(context.Background(), snap, 8)
	if err != nil {
		t.Fatalf("parallel evaluation: %v", err)
	}
	if seqChecked != parChecked {
		t.Fatalf("checked counts differ: %d vs %d", seqChecked, parChecked)
	}
	seqSorted := sortedViolations(seq.Violations)
	parSorted := sortedViolations(par.Violations)
	if !reflect.DeepEqual(seqSorted, parSorted) {
		t.Fatalf("violation sets differ:\nsequential: %v\nparallel:   %v", seqSorted, parSorted)
	}
}

func sortedViolations(violations []domain.Violation) []domain.Violation {
	sorted := append([]domain.Violation(nil), violations...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Invariant != b.Invariant {
			return a.Invariant < b.Invariant
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Message < b.Message
	})
	return sorted
}

func TestUnsupportedInvariantsReturnNotImplemented(t *testing.T) {
	catalog := NewDefaultCatalog()
	unsupported := catalog.Unsupported()
	if len(unsupported) != 3 {
		t.Fatalf("expected 3 unsupported entries, got %d", len(unsupported))
	}
	snap := derivedSnapshot(t, validStore(t))
	for _, inv := range unsupported {
		if _, err := inv.Evaluate(context.Background(), snap); !errors.Is(err, domain.ErrNotImplemented) {
			t.Fatalf("expected ErrNotImplemented from %s, got %v", inv.Name(), err)
		}
	}
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	catalog := NewDefaultCatalog()
	invs := catalog.Invariants()
	invs[0] = nil
	if catalog.Invariants()[0] == nil {
		t.Fatalf("mutating the returned slice must not affect the catalog")
	}
}

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	engine := NewEngine(nil, WithMetrics(rec))
	if _, err := engine.Validate(context.Background(), validStore(t)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	snap := rec.Snapshot()
	if snap.Runs["valid"] != 1 {
		t.Fatalf("expected one valid run recorded, got %v", snap.Runs)
	}
	if snap.ViolationsTotal != 0 {
		t.Fatalf("expected no violations recorded, got %d", snap.ViolationsTotal)
	}
}
