package archive

import (
	"context"
	"sort"
	"sync"

	"lodgecore/pkg/domain"
)

// Memory is an in-process archive for tests and ephemeral runs.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
}

var _ Archive = (*Memory)(nil)

// NewMemory returns an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{reports: make(map[string]domain.Report)}
}

// SaveReport stores the report, replacing any previous one with the same run id.
func (m *Memory) SaveReport(_ context.Context, report domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.RunID] = cloneReport(report)
	return nil
}

// GetReport returns the report with the given run id.
func (m *Memory) GetReport(_ context.Context, runID string) (domain.Report, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[runID]
	if !ok {
		return domain.Report{}, false, nil
	}
	return cloneReport(report), true, nil
}

// ListReports returns every stored report sorted by start time, oldest first.
func (m *Memory) ListReports(_ context.Context) ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, cloneReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// Close is a no-op for the in-memory archive.
func (m *Memory) Close() error { return nil }

func cloneReport(r domain.Report) domain.Report {
	cp := r
	cp.Violations = append([]domain.Violation(nil), r.Violations...)
	return cp
}
