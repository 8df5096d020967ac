package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dealsense-ai/insights-engine/internal/cache"
	"github.com/dealsense-ai/insights-engine/internal/observability"
)

// CanonicalKey builds a deterministic cache key from request parameters.
// Names are sorted and concatenated as name=value pairs (absent values are
// empty strings), so identical requests hit the same entry regardless of
// parameter insertion order. The concatenation is hashed to keep keys short.
func CanonicalKey(params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "query:" + hex.EncodeToString(sum[:])
}

// ResponseCache stores full pipeline responses as JSON under a TTL. Storing
// serialized bytes means every hit is deserialized into a fresh value, so
// callers can mark the returned payload (cache_hit) without mutating the
// stored copy.
type ResponseCache struct {
	client cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewResponseCache wraps a cache client with the response TTL.
func NewResponseCache(client cache.Client, ttl time.Duration, logger *observability.Logger) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached response for key, or (nil, false) on miss. Cache
// faults count as misses; the pipeline recomputes rather than failing.
func (rc *ResponseCache) Get(ctx context.Context, key string) (*Response, bool) {
	data, err := rc.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			rc.logger.WithComponent("response_cache").Warn().
				Err(err).
				Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		rc.logger.WithComponent("response_cache").Warn().
			Err(err).
			Msg("cached payload corrupt, treating as miss")
		return nil, false
	}

	return &resp, true
}

// Set stores a response under key. Failures are logged and swallowed; the
// response has already been computed and caching is best-effort.
func (rc *ResponseCache) Set(ctx context.Context, key string, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		rc.logger.WithComponent("response_cache").Warn().
			Err(err).
			Msg("response not serializable, skipping cache store")
		return
	}

	if err := rc.client.Set(ctx, key, data, rc.ttl); err != nil {
		rc.logger.WithComponent("response_cache").Warn().
			Err(err).
			Msg("cache write failed")
	}
}
