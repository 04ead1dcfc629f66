// Package archive persists validation reports for later inspection. Reports
// are stored as JSON payloads keyed by run id; the engine itself never
// touches the archive, callers persist the reports they care about.
package archive

import (
	"context"
	"fmt"
	"os"

	"lodgecore/pkg/domain"
)

// Driver identifies a concrete archive implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Archive stores and retrieves validation reports.
type Archive interface {
	SaveReport(ctx context.Context, report domain.Report) error
	GetReport(ctx context.Context, runID string) (domain.Report, bool, error)
	ListReports(ctx context.Context) ([]domain.Report, error)
	Close() error
}

// Open selects a backend using environment variables. Defaults to sqlite
// when unset.
//
//	LODGECORE_ARCHIVE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LODGECORE_SQLITE_PATH: path to sqlite file (default ./lodgecore.db)
//	LODGECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (Archive, error) {
	driver := os.Getenv("LODGECORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(os.Getenv("LODGECORE_SQLITE_PATH"))
	case DriverPostgres:
		return NewPostgres(os.Getenv("LODGECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
