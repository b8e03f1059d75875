package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultScanBatchSize = 100
	defaultKeyPrefix     = "autoexport:"
	pingTimeout          = 5 * time.Second
)

// RedisConfig holds the connection settings for the cache client
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisCache implements ResponseCache on Redis. Keys are stored under a
// prefix so pattern deletes never touch other applications' data.
type RedisCache struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	logger     *zap.Logger
}

// RedisCacheOption configures a RedisCache
type RedisCacheOption func(*RedisCache)

// WithCacheLogger sets the logger
func WithCacheLogger(logger *zap.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// WithKeyPrefix overrides the key prefix
func WithKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// NewRedisCache connects to Redis and verifies the connection with PING
func NewRedisCache(cfg RedisConfig, opts ...RedisCacheOption) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisCacheWithClient wraps an existing client. The caller keeps
// ownership and must close it.
func NewRedisCacheWithClient(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: defaultKeyPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get returns the cached payload for key
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key for ttl
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
	return nil
}

// DeletePattern walks matching keys with SCAN and deletes them batch by batch
func (c *RedisCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.key(pattern), defaultScanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan cache keys for %s: %w", pattern, err)
		}

		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete cache keys for %s: %w", pattern, err)
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("cache keys invalidated",
		zap.String("pattern", pattern),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

// Close closes the client if this cache created it
func (c *RedisCache) Close() error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Close()
}

var _ ResponseCache = (*RedisCache)(nil)
