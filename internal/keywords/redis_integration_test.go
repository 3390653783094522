//go:build integration

package keywords

import (
	"context"
	"os"
	"testing"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("RESUMESCAN_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, config.CacheConfig{Enabled: true, RedisAddr: addr})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer func() { _ = client.Close() }()

	cache := NewRedisCache(client, time.Minute)
	key := CacheKey("integration " + time.Now().String())

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []types.ExtractedKeyword{{Text: "Go", Category: types.CategoryTechnology, Importance: types.ImportanceHigh}}
	require.NoError(t, cache.Set(ctx, key, want))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, cache.key(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
