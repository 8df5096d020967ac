package rag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsense-ai/insights-engine/internal/cache"
	"github.com/dealsense-ai/insights-engine/internal/observability"
)

func TestCanonicalKey_OrderIndependent(t *testing.T) {
	a := CanonicalKey(map[string]string{"query": "cloud", "year": "2025", "seller": ""})
	b := CanonicalKey(map[string]string{"seller": "", "year": "2025", "query": "cloud"})

	assert.Equal(t, a, b)
}

func TestCanonicalKey_ValueSensitive(t *testing.T) {
	a := CanonicalKey(map[string]string{"query": "cloud", "year": "2025"})
	b := CanonicalKey(map[string]string{"query": "cloud", "year": "2024"})

	assert.NotEqual(t, a, b)
}

func TestCanonicalKey_AbsentEqualsEmpty(t *testing.T) {
	// Absent parameters are serialized as empty strings at the edge, so the
	// flattened request always carries the full parameter set.
	withEmpty := CanonicalKey(map[string]string{"query": "cloud", "seller": ""})
	withValue := CanonicalKey(map[string]string{"query": "cloud", "seller": "ana"})

	assert.NotEqual(t, withEmpty, withValue)
}

func TestResponseCache_RoundTrip(t *testing.T) {
	rc := NewResponseCache(cache.NewMemoryClient(10), time.Minute, observability.NopLogger())
	ctx := context.Background()

	resp := &Response{Success: true, Query: "cloud", Deals: dealsWithSimilarities(0.9)}
	rc.Set(ctx, "k", resp)

	got, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "cloud", got.Query)
	require.Len(t, got.Deals, 1)
}

func TestResponseCache_HitReturnsIndependentCopy(t *testing.T) {
	rc := NewResponseCache(cache.NewMemoryClient(10), time.Minute, observability.NopLogger())
	ctx := context.Background()

	rc.Set(ctx, "k", &Response{Success: true, Query: "cloud"})

	first, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	first.RAG.CacheHit = true

	second, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.False(t, second.RAG.CacheHit, "marking a hit must not mutate the stored copy")
}

func TestResponseCache_MissAfterTTL(t *testing.T) {
	rc := NewResponseCache(cache.NewMemoryClient(10), -time.Second, observability.NopLogger())
	ctx := context.Background()

	rc.Set(ctx, "k", &Response{Success: true})

	_, ok := rc.Get(ctx, "k")
	assert.False(t, ok)
}
