// Package core defines the object-store contract shared by the upload
// publisher and the storage drivers.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem stores objects under a local directory (default).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores objects in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps objects in process memory.
	DriverMemory Driver = "memory"
)

// ParseDriver maps a configuration value to a Driver. Empty selects the
// filesystem driver.
func ParseDriver(v string) (Driver, error) {
	switch Driver(v) {
	case "", DriverFilesystem:
		return DriverFilesystem, nil
	case DriverS3, DriverMemory:
		return Driver(v), nil
	}
	return "", fmt.Errorf("unknown blob driver %q", v)
}

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Object describes a stored blob.
type Object struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the S3-like surface the upload path needs. Put is create-only.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	Get(ctx context.Context, key string) (Object, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	// URL is where a stored key can be fetched when no public base is configured.
	URL(key string) string
	Driver() Driver
}

var (
	// ErrExists is returned by Put when the key is taken.
	ErrExists = errors.New("blob: object already exists")
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("blob: object not found")
)

// CloneMetadata copies user metadata so callers cannot alias stored maps.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
