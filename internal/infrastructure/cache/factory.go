package cache

import (
	"fmt"

	"github.com/autoexport/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Factory builds the response cache from configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a Factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache connects to the configured Redis
func (f *Factory) CreateRedisCache() (*RedisCache, error) {
	c, err := NewRedisCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, WithCacheLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache builds a process-local cache. Instances do not share
// invalidations, so only use it for single-instance deployments.
func (f *Factory) CreateInMemoryCache() *InMemoryCache {
	return NewInMemoryCache(WithInMemoryLogger(f.logger))
}

// CreateCache returns Redis when enabled and reachable, otherwise the
// in-memory cache if fallback is allowed.
func (f *Factory) CreateCache() (ResponseCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory response cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis response cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory response cache",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Error(err))
	return f.CreateInMemoryCache(), nil
}
