package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"lodgecore/pkg/domain"
)

// SQLite persists reports to a single-table sqlite file as JSON payloads.
type SQLite struct {
	db   *sql.DB
	path string
}

var _ Archive = (*SQLite)(nil)

// NewSQLite opens (creating if needed) a sqlite-backed archive at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "lodgecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS reports (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		status TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create reports table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// SaveReport upserts the report payload under its run id.
func (s *SQLite) SaveReport(ctx context.Context, report domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports(run_id, started_at, status, payload) VALUES(?,?,?,?)
		 ON CONFLICT(run_id) DO UPDATE SET started_at=excluded.started_at, status=excluded.status, payload=excluded.payload`,
		report.RunID, report.StartedAt.Format("2006-01-02T15:04:05.999999999Z07:00"), string(report.Status), payload)
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", report.RunID, err)
	}
	return nil
}

// GetReport loads one report by run id.
func (s *SQLite) GetReport(ctx context.Context, runID string) (domain.Report, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE run_id = ?`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, false, nil
	}
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("select report %s: %w", runID, err)
	}
	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return domain.Report{}, false, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return report, true, nil
}

// ListReports returns every stored report, oldest first.
func (s *SQLite) ListReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM reports ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report domain.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }
