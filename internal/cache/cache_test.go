package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	Nombre string
}

func newTestCache(t *testing.T, size int, ttl time.Duration) *Cache[item] {
	t.Helper()
	c := New[item]("materia_prima", nil, size, ttl, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10, time.Minute)

	_, err := c.Get(ctx, 1)
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, c.Set(ctx, 1, item{Nombre: "Resina"}))

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Resina", got.Nombre)

	require.NoError(t, c.Invalidate(ctx, 1))
	_, err = c.Get(ctx, 1)
	assert.True(t, errors.Is(err, ErrMiss))

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(3), stats.TotalRequests)
}

func TestCache_Expira(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10, time.Millisecond)

	require.NoError(t, c.Set(ctx, 1, item{Nombre: "Pigmento"}))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, 1)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestCache_RespetaTamanoMaximo(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 2, time.Minute)

	for id := 1; id <= 5; id++ {
		require.NoError(t, c.Set(ctx, id, item{}))
	}

	assert.Equal(t, 2, c.GetStats().TotalKeys)

	// Reemplazar una clave existente no desaloja otras
	require.NoError(t, c.Set(ctx, 5, item{Nombre: "nuevo"}))
	assert.Equal(t, 2, c.GetStats().TotalKeys)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10, time.Minute)

	for id := 1; id <= 3; id++ {
		require.NoError(t, c.Set(ctx, id, item{Nombre: "Resina"}))
	}

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.GetStats().TotalKeys)

	_, err := c.Get(ctx, 2)
	assert.True(t, errors.Is(err, ErrMiss))
}
