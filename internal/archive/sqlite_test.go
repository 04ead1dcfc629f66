package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lodgecore/pkg/domain"
)

func TestSQLiteArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.db")
	arch, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite archive: %v", err)
	}
	defer arch.Close()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := arch.SaveReport(ctx, sampleReport("run-b", base.Add(time.Hour), domain.RunInvalid)); err != nil {
		t.Fatalf("save run-b: %v", err)
	}
	if err := arch.SaveReport(ctx, sampleReport("run-a", base, domain.RunValid)); err != nil {
		t.Fatalf("save run-a: %v", err)
	}

	got, ok, err := arch.GetReport(ctx, "run-b")
	if err != nil || !ok {
		t.Fatalf("get run-b: ok=%v err=%v", ok, err)
	}
	if got.Status != domain.RunInvalid || len(got.Violations) != 1 {
		t.Fatalf("unexpected stored report: %+v", got)
	}

	if _, ok, err := arch.GetReport(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing report: ok=%v err=%v", ok, err)
	}

	reports, err := arch.ListReports(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 2 || reports[0].RunID != "run-a" {
		t.Fatalf("expected oldest-first order, got %v", reports)
	}
}

func TestSQLiteArchiveUpsertsSameRunID(t *testing.T) {
	ctx := context.Background()
	arch, err := NewSQLite(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open sqlite archive: %v", err)
	}
	defer arch.Close()

	started := time.Now().UTC()
	if err := arch.SaveReport(ctx, sampleReport("run-1", started, domain.RunInvalid)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := arch.SaveReport(ctx, sampleReport("run-1", started, domain.RunValid)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, ok, err := arch.GetReport(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Status != domain.RunValid {
		t.Fatalf("expected the report to be replaced, got status %s", got.Status)
	}
	reports, err := arch.ListReports(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected a single row after upsert, got %d", len(reports))
	}
}
