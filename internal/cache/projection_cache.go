package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sellerkit/replan/internal/config"
	"github.com/sellerkit/replan/internal/planning/projection"
)

const (
	projectionKeyPrefix   = "replan:projection"
	projectionScanBatches = 100
)

// ResultKey identifies one memoizable projection run. The engine is pure,
// so (state revision, months, anchor, mode) fully determines the result.
type ResultKey struct {
	Revision    string
	Months      []string
	SKUs        []string
	AnchorMonth string
	Mode        projection.Mode
}

// ProjectionCache memoizes projection runs between identical requests.
type ProjectionCache interface {
	Get(ctx context.Context, key ResultKey) (*projection.Result, bool, error)
	Set(ctx context.Context, key ResultKey, result *projection.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopProjectionCache struct{}

// NewProjectionCache returns a redis-backed cache, or a noop when caching is
// disabled.
func NewProjectionCache(cfg config.CacheConfig) (ProjectionCache, error) {
	if !cfg.Enabled {
		return &noopProjectionCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisProjectionCache{client: client, ttl: ttl}, nil
}

// NewNoopProjectionCache returns a cache that never hits.
func NewNoopProjectionCache() ProjectionCache {
	return &noopProjectionCache{}
}

func (c *redisProjectionCache) Get(ctx context.Context, key ResultKey) (*projection.Result, bool, error) {
	payload, err := c.client.Get(ctx, buildProjectionKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result projection.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode projection cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisProjectionCache) Set(ctx context.Context, key ResultKey, result *projection.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode projection cache: %w", err)
	}

	if err := c.client.Set(ctx, buildProjectionKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisProjectionCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, projectionKeyPrefix, projectionScanBatches)
}

func (n *noopProjectionCache) Get(ctx context.Context, key ResultKey) (*projection.Result, bool, error) {
	return nil, false, nil
}

func (n *noopProjectionCache) Set(ctx context.Context, key ResultKey, result *projection.Result) error {
	return nil
}

func (n *noopProjectionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildProjectionKey(key ResultKey) string {
	raw := strings.Join([]string{
		"revision=" + key.Revision,
		"months=" + strings.Join(key.Months, ","),
		"skus=" + strings.Join(key.SKUs, ","),
		"anchor=" + key.AnchorMonth,
		"mode=" + string(key.Mode),
	}, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", projectionKeyPrefix, hex.EncodeToString(sum[:]))
}
