package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStorage struct {
	uploadErr error
	deleteErr error
	uploads   int
	deletes   int
}

func (f *flakyStorage) Upload(_ context.Context, _ *UploadInput) (*UploadResult, error) {
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &UploadResult{PublicID: "id", URL: "https://cdn.example.com/uploads/id"}, nil
}

func (f *flakyStorage) Delete(_ context.Context, _ string) error {
	f.deletes++
	return f.deleteErr
}

func (f *flakyStorage) Ping(_ context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestBreakerStorage_PassesThroughSuccess(t *testing.T) {
	inner := &flakyStorage{}
	bs := NewBreakerStorage(inner, DefaultBreakerConfig("test-pass"), testLogger())

	result, err := bs.Upload(context.Background(), &UploadInput{FileName: "a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/id", result.URL)

	assert.NoError(t, bs.Delete(context.Background(), result.URL))
	assert.Equal(t, 1, inner.uploads)
	assert.Equal(t, 1, inner.deletes)
}

func TestBreakerStorage_OpensAfterRepeatedFailures(t *testing.T) {
	inner := &flakyStorage{uploadErr: errors.New("store unavailable")}
	cfg := BreakerConfig{
		Name:         "test-open",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
	bs := NewBreakerStorage(inner, cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, err := bs.Upload(context.Background(), &UploadInput{})
		assert.Error(t, err)
	}

	// Breaker is now open; calls fail fast without touching the store.
	before := inner.uploads
	_, err := bs.Upload(context.Background(), &UploadInput{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, inner.uploads)
}

func TestBreakerStorage_PingBypassesBreaker(t *testing.T) {
	inner := &flakyStorage{uploadErr: errors.New("down")}
	bs := NewBreakerStorage(inner, DefaultBreakerConfig("test-ping"), testLogger())
	assert.NoError(t, bs.Ping(context.Background()))
}
