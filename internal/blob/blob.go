// Package blob provides the document store used to archive raw snapshot
// documents and rendered reports. It exposes a thin S3-like Store interface;
// the concrete backends live under internal/infra/blob and must only be
// imported through this package.
package blob

import (
	"context"
	"fmt"
	"os"

	blobcore "lodgecore/internal/blob/core"
	fsstore "lodgecore/internal/infra/blob/fs"
	memorystore "lodgecore/internal/infra/blob/memory"
	s3store "lodgecore/internal/infra/blob/s3"
)

// Re-exported contract types so callers need a single import.
type (
	// Store is the document store abstraction.
	Store = blobcore.Store
	// Info describes a stored document.
	Info = blobcore.Info
	// PutOptions specifies optional parameters for Put.
	PutOptions = blobcore.PutOptions
	// SignedURLOptions holds options for generating a pre-signed URL.
	SignedURLOptions = blobcore.SignedURLOptions
	// Driver identifies a backend implementation.
	Driver = blobcore.Driver
)

// Backend driver identifiers.
const (
	DriverFilesystem = blobcore.DriverFilesystem
	DriverS3         = blobcore.DriverS3
	DriverMemory     = blobcore.DriverMemory
)

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = blobcore.ErrUnsupported

// NewMemory returns an in-memory Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a Store rooted at the given directory.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// Open selects a Store implementation using environment variables.
//
//	LODGECORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	LODGECORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 backend)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("LODGECORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("LODGECORE_BLOB_FS_ROOT")
		if root == "" {
			root = "blobdata"
		}
		return fsstore.New(root)
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
