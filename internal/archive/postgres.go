package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"lodgecore/pkg/domain"
)

const (
	postgresDriver = "pgx"
	// Default DSN keeps parity with Open defaults while allowing overrides via env.
	defaultPostgresDSN = "postgres://localhost/lodgecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Postgres persists reports to a PostgreSQL table as JSONB payloads.
type Postgres struct {
	db *sql.DB
}

var _ Archive = (*Postgres)(nil)

// NewPostgres opens a postgres-backed archive using the provided DSN
// (falls back to defaultPostgresDSN) and ensures the reports table exists.
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS reports (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure reports table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (p *Postgres) DB() *sql.DB { return p.db }

// SaveReport upserts the report payload under its run id.
func (p *Postgres) SaveReport(ctx context.Context, report domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO reports(run_id, started_at, status, payload) VALUES($1,$2,$3,$4)
		 ON CONFLICT(run_id) DO UPDATE SET started_at=EXCLUDED.started_at, status=EXCLUDED.status, payload=EXCLUDED.payload`,
		report.RunID, report.StartedAt, string(report.Status), payload)
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", report.RunID, err)
	}
	return nil
}

// GetReport loads one report by run id.
func (p *Postgres) GetReport(ctx context.Context, runID string) (domain.Report, bool, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE run_id = $1`, runID).Scan(&payload)
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
func (p *Postgres) ListReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT payload FROM reports ORDER BY started_at, run_id`)
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
func (p *Postgres) Close() error { return p.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
