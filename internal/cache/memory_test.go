package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, PrefixSearch+"a", []byte("1"), 0)
	_ = c.Set(ctx, PrefixSearch+"b", []byte("2"), 0)
	_ = c.Set(ctx, PrefixDashboard+"stats", []byte("3"), 0)

	require.NoError(t, c.DeletePrefix(ctx, PrefixSearch))

	_, ok, _ := c.Get(ctx, PrefixSearch+"a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, PrefixDashboard+"stats")
	assert.True(t, ok)

	require.NoError(t, InvalidateStock(ctx, c))
	_, ok, _ = c.Get(ctx, PrefixDashboard+"stats")
	assert.False(t, ok)
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	calls := 0
	load := func() (map[string]int, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	first, err := Remember(ctx, c, "key", time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, "key", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	t.Run("loader errors are not cached", func(t *testing.T) {
		_, err := Remember(ctx, c, "failing", time.Minute, func() (int, error) {
			return 0, errors.New("db down")
		})
		assert.Error(t, err)
		_, ok, _ := c.Get(ctx, "failing")
		assert.False(t, ok)
	})

	t.Run("nil cache always loads", func(t *testing.T) {
		v, err := Remember[int](ctx, nil, "x", time.Minute, func() (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}
