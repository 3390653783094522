package keywords

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/types"

	"github.com/redis/go-redis/v9"
)

// Cache stores keyword extraction results keyed by CacheKey
type Cache interface {
	Get(ctx context.Context, key string) ([]types.ExtractedKeyword, bool, error)
	Set(ctx context.Context, key string, keywords []types.ExtractedKeyword) error
}

// CacheKey is the SHA-256 of the whitespace-normalized job text
func CacheKey(jobText string) string {
	normalized := strings.Join(strings.Fields(jobText), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NopCache never hits
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]types.ExtractedKeyword, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, []types.ExtractedKeyword) error { return nil }

// RedisCache keeps extraction results in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache over client. A zero ttl means 24h.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	addr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) key(k string) string {
	return "resumescan:keywords:" + k
}

// Get returns the cached keywords for key. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) ([]types.ExtractedKeyword, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var kws []types.ExtractedKeyword
	if err := json.Unmarshal(data, &kws); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return kws, true, nil
}

// Set stores keywords under key with the cache TTL
func (c *RedisCache) Set(ctx context.Context, key string, keywords []types.ExtractedKeyword) error {
	data, err := json.Marshal(keywords)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}
