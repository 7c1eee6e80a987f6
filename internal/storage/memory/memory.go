// Package memory provides an in-memory storage.Storage used in tests and in
// local development when no Cloudinary credentials are configured.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/yogeshdgrg/BR-Dashboard/internal/storage"
)

// Storage implements storage.Storage using an in-memory map keyed by URL.
// It stores metadata only (no file bytes).
type Storage struct {
	mu      sync.RWMutex
	objects map[string]objectEntry
	baseURL string
}

type objectEntry struct {
	PublicID    string
	ContentType string
	Size        int64
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]objectEntry),
		baseURL: baseURL,
	}
}

// Upload records the object and returns a synthetic URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	// Drain the reader so callers see the same single-read contract as the
	// real store.
	if input.Data != nil {
		if _, err := io.Copy(io.Discard, input.Data); err != nil {
			return nil, fmt.Errorf("read upload data: %w", err)
		}
	}

	publicID := uuid.New().String()
	url := fmt.Sprintf("%s/uploads/%s", s.baseURL, publicID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[url] = objectEntry{
		PublicID:    publicID,
		ContentType: input.ContentType,
		Size:        input.Size,
	}

	return &storage.UploadResult{PublicID: publicID, URL: url}, nil
}

// Delete removes the object. Unknown URLs are a no-op.
func (s *Storage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, url)
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

// Contains reports whether an object with the given URL is stored. Used by
// tests to assert upload/delete effects.
func (s *Storage) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[url]
	return ok
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
