// Package filestore defines the object storage interface generated
// declaration files can be published to.
//
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	store, err := minio.New(ctx, &cfg.Store)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, "types", "db.ts", strings.NewReader(src), filestore.PutOptions{})
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all file storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// EnsureBucket creates bucket if it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads r to key inside bucket, replacing any existing object.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (*ObjectInfo, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
