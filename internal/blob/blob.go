// Package blob is the entry point to blob storage. Packages outside the blob
// tree depend on the Store interface here rather than on infra backends.
package blob

import (
	"context"
	"fmt"

	"kittycore/internal/blob/core"
	infraFS "kittycore/internal/infra/blob/fs"
	infraMemory "kittycore/internal/infra/blob/memory"
	infraS3 "kittycore/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3-compatible backend.
	S3Config = infraS3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrExists is returned when writing a key that is already taken.
	ErrExists = core.ErrExists
	// ErrNotFound is returned when reading a missing key.
	ErrNotFound = core.ErrNotFound
)

// Config selects and configures a backend for Open.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// NewMemory returns an in-memory blob store.
func NewMemory() Store { return infraMemory.New() }

// NewFilesystem returns a blob store rooted at root.
func NewFilesystem(root string) (Store, error) { return infraFS.New(root) }

// NewS3 constructs an S3-backed blob store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return infraS3.New(ctx, cfg) }

// Open builds the store named by cfg.Driver, defaulting to the filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
