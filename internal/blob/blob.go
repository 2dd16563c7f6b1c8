// Package blob is the entry point to document storage. It selects a driver
// from configuration and wraps it in a Publisher that names objects and
// resolves their public URLs. Packages outside the blob tree depend on this
// package rather than on the infra drivers.
package blob

import (
	"context"
	"fmt"

	"evictioncrm/internal/blob/core"
	"evictioncrm/internal/infra/blob/fs"
	"evictioncrm/internal/infra/blob/memory"
	"evictioncrm/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Object describes stored blob metadata.
	Object = core.Object
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the s3 driver.
	S3Config = s3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrExists   = core.ErrExists
	ErrNotFound = core.ErrNotFound
)

// Config selects and configures a driver.
type Config struct {
	Driver string
	// FSRoot is the fs driver's directory.
	FSRoot string
	// FilesPrefix roots fetch URLs for the fs and memory drivers, which are
	// served by the HTTP API.
	FilesPrefix string
	S3          S3Config
}

// Open constructs the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver, err := core.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverS3:
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return store, nil
	case DriverMemory:
		return memory.New(cfg.FilesPrefix), nil
	default:
		store, err := fs.New(cfg.FSRoot, cfg.FilesPrefix)
		if err != nil {
			return nil, fmt.Errorf("open fs blob store: %w", err)
		}
		return store, nil
	}
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store { return memory.New("") }

// NewMockS3ForTests returns an s3 driver wired to an in-process fake bucket.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
