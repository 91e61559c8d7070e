package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tikets-io/tikets/internal/config"
)

const listCacheKey = "tikets:list"

// Redis wraps the go-redis client. When no address is configured the wrapper
// stays nil-safe and every cache call is a no-op.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. A missing
// address disables the cache entirely.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not provided; list cache disabled")
		return &Redis{Client: nil}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// ListCache caches the rendered ticket-list projection. Every operation is
// best effort; errors are logged and never reach the caller.
type ListCache struct {
	redis  *Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewListCache builds the cache with the configured TTL.
func NewListCache(r *Redis, ttl time.Duration, logger *zap.Logger) *ListCache {
	return &ListCache{redis: r, ttl: ttl, logger: logger}
}

// Get returns the cached projection bytes, or nil on miss or error.
func (c *ListCache) Get(ctx context.Context) []byte {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return nil
	}
	data, err := c.redis.Client.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("list cache read failed", zap.Error(err))
		}
		return nil
	}
	return data
}

// Set stores the projection bytes with the cache TTL.
func (c *ListCache) Set(ctx context.Context, data []byte) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	if err := c.redis.Client.Set(ctx, listCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("list cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached projection after a mutation.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	if err := c.redis.Client.Del(ctx, listCacheKey).Err(); err != nil {
		c.logger.Warn("list cache invalidation failed", zap.Error(err))
	}
}
