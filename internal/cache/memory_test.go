package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_SetGet(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	err := c.Set(ctx, "k1", []byte("v1"), time.Minute)
	require.NoError(t, err)

	val, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
}

func TestMemoryClient_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryClient(10)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_ZeroTTLIsImmediateMiss(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_ExpiredEntryEvictedOnGet(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), -time.Second))
	assert.Equal(t, 1, c.Len())

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_EvictsOldestTenthWhenFull(t *testing.T) {
	c := NewMemoryClient(20)
	ctx := context.Background()

	// Entries expire in insertion order, so the earliest keys go first.
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("k%02d", i)
		require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute+time.Duration(i)*time.Second))
	}
	assert.Equal(t, 20, c.Len())

	// Cap reached: next insert drops the oldest 10% (2 entries).
	require.NoError(t, c.Set(ctx, "fresh", []byte("v"), time.Hour))
	assert.Equal(t, 19, c.Len())

	_, err := c.Get(ctx, "k00")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "k01")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.Get(ctx, "k02")
	assert.NoError(t, err)
}

func TestMemoryClient_Delete(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k1"))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_OverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryClient(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "a", []byte("3"), time.Minute))

	val, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	val, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}
