// Package storage abstracts the external object store that holds product and
// banner images. Implementations must make Delete idempotent: deleting an
// object that no longer exists is a success, so retried cleanups never fail.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for image storage operations.
type Storage interface {
	// Upload stores a file and returns its public URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes the object behind the given public URL. Deleting an
	// already-absent object returns nil.
	Delete(ctx context.Context, url string) error

	// Ping verifies connectivity with the store.
	Ping(ctx context.Context) error
}

// UploadInput holds the parameters for uploading a file.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	// PublicID is the store-assigned object identifier.
	PublicID string
	// URL is the public delivery URL persisted on the product document.
	URL string
}
