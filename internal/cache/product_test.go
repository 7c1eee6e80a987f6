package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
)

func setupTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewProductCache(client, 10*time.Minute, logger)
	return c, mr
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:          "prod-1",
		Name:        "Oak Chair",
		Description: "Solid oak dining chair",
		Category:    "furniture",
		Images: []domain.ImageRef{
			{ID: "img1", URL: "https://cdn.example.com/img1.jpg"},
		},
		Colors: []domain.ColorVariant{
			{ID: "col1", Name: "Walnut", Image: domain.ImageRef{ID: "ci1", URL: "https://cdn.example.com/walnut.jpg"}},
		},
	}
}

func TestProductCache_MissReturnsNil(t *testing.T) {
	c, _ := setupTestCache(t)

	p, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductCache_SetGetRoundtrip(t *testing.T) {
	c, mr := setupTestCache(t)
	want := testProduct()

	require.NoError(t, c.Set(context.Background(), want))

	got, err := c.Get(context.Background(), want.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Images, got.Images)
	assert.Equal(t, want.Colors, got.Colors)

	ttl := mr.TTL("product:" + want.ID)
	assert.Equal(t, 10*time.Minute, ttl)
}

func TestProductCache_CorruptEntryDropped(t *testing.T) {
	c, mr := setupTestCache(t)

	require.NoError(t, mr.Set("product:prod-1", "{not json"))

	p, err := c.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Nil(t, p)
	// The corrupt entry is deleted so the next database read can repopulate it.
	assert.False(t, mr.Exists("product:prod-1"))
}

func TestProductCache_InfraErrorDegradesToMiss(t *testing.T) {
	c, mr := setupTestCache(t)

	data, err := json.Marshal(testProduct())
	require.NoError(t, err)
	require.NoError(t, mr.Set("product:prod-1", string(data)))

	mr.SetError("redis is down")

	p, err := c.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductCache_Invalidate(t *testing.T) {
	c, mr := setupTestCache(t)

	require.NoError(t, c.Set(context.Background(), testProduct()))
	require.True(t, mr.Exists("product:prod-1"))

	require.NoError(t, c.Invalidate(context.Background(), "prod-1"))
	assert.False(t, mr.Exists("product:prod-1"))
}
