package archive

import (
	"context"
	"testing"
	"time"

	"lodgecore/pkg/domain"
)

func sampleReport(runID string, startedAt time.Time, status domain.RunStatus) domain.Report {
	report := domain.Report{
		RunID:     runID,
		Status:    status,
		StartedAt: startedAt,
		Duration:  12 * time.Millisecond,
		Checked:   39,
	}
	if status == domain.RunInvalid {
		report.Violations = []domain.Violation{
			{Invariant: "adultTenant", Entity: domain.EntityResident, EntityID: "p-1", Message: "tenant is 16 years old"},
		}
	}
	return report
}

func TestMemoryArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	arch := NewMemory()
	defer arch.Close()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := arch.SaveReport(ctx, sampleReport("run-b", base.Add(time.Hour), domain.RunInvalid)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := arch.SaveReport(ctx, sampleReport("run-a", base, domain.RunValid)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := arch.GetReport(ctx, "run-b")
	if err != nil || !ok {
		t.Fatalf("get run-b: ok=%v err=%v", ok, err)
	}
	if len(got.Violations) != 1 {
		t.Fatalf("expected stored violations, got %v", got.Violations)
	}

	if _, ok, err := arch.GetReport(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing report: ok=%v err=%v", ok, err)
	}

	reports, err := arch.ListReports(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 2 || reports[0].RunID != "run-a" || reports[1].RunID != "run-b" {
		t.Fatalf("expected oldest-first order, got %v", reports)
	}
}

func TestMemoryArchiveIsolatesStoredReports(t *testing.T) {
	ctx := context.Background()
	arch := NewMemory()
	report := sampleReport("run-1", time.Now().UTC(), domain.RunInvalid)
	if err := arch.SaveReport(ctx, report); err != nil {
		t.Fatalf("save: %v", err)
	}
	report.Violations[0].Message = "mutated"

	got, _, err := arch.GetReport(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Violations[0].Message == "mutated" {
		t.Fatalf("archive must store a copy of the violations")
	}
}

func TestOpenSelectsMemoryDriver(t *testing.T) {
	t.Setenv("LODGECORE_ARCHIVE_DRIVER", "memory")
	arch, err := Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer arch.Close()
	if _, ok := arch.(*Memory); !ok {
		t.Fatalf("expected memory archive, got %T", arch)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Setenv("LODGECORE_ARCHIVE_DRIVER", "etcd")
	if _, err := Open(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
