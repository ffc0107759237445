package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config holds the Redis connection settings. An empty Address disables caching.
type Config struct {
	Address  string `env:"REDIS_ADDRESS"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// Cache is a JSON cache over Redis. A Cache without a client is a valid no-op cache,
// so callers never need to check whether Redis is available.
type Cache struct {
	client *redis.Client
}

// New connects to Redis. When Redis is not configured or unreachable it returns a
// disabled cache and logs a warning instead of failing startup.
func New(ctx context.Context, cfg Config, logger *zerolog.Logger) *Cache {
	if cfg.Address == "" {
		logger.Info().Msg("redis address not set, caching disabled")
		return &Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("address", cfg.Address).Msg("redis unreachable, continuing without cache")
		_ = client.Close()
		return &Cache{}
	}

	logger.Info().Str("address", cfg.Address).Msg("redis connected")

	return &Cache{client: client}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether the cache is backed by Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}

	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, b, ttl).Err()
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	return c.client.Del(ctx, keys...).Err()
}

// CacheAside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Read and write errors against Redis never fail
// the call; only fetch errors are returned.
func (c *Cache) CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := c.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = c.SetJSON(ctx, key, dest, ttl)

	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}

	return c.client.Close()
}
