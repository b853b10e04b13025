package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for the durable blob store that
// holds per-job documents and audio artifacts.
type ObjectStorage interface {
	// Upload writes an object, overwriting any existing one at key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download reads an object; ErrObjectNotFound if the key is absent
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string
}
