package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"athena-be/internal/domain"
	"athena-be/pkg/redis"

	"go.uber.org/zap"
)

// CacheService keeps the hackathon listing in Redis with a cache-aside
// pattern. A nil Redis client turns every method into a pass-through.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger, ttl time.Duration) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = redis.TTLHackathonsAll
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// Enabled reports whether a Redis client is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetHackathonsWithCache retrieves the hackathon listing, falling back to the store on a miss
func (c *CacheService) GetHackathonsWithCache(ctx context.Context, fallback func(ctx context.Context) ([]*domain.Hackathon, error)) ([]*domain.Hackathon, error) {
	if !c.Enabled() {
		return fallback(ctx)
	}
	cacheKey := c.redis.KeyBuilder.KeyHackathonsAll()

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var hackathons []*domain.Hackathon
		if marshalErr := json.Unmarshal([]byte(cachedData), &hackathons); marshalErr == nil {
			c.logger.Debug("Hackathon listing cache hit", zap.Int("count", len(hackathons)))
			return hackathons, nil
		} else {
			c.logger.Warn("Hackathon listing cache corrupted, falling back to store", zap.Error(marshalErr))
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("Hackathon listing cache error, falling back to store", zap.Error(err))
	}

	c.logger.Debug("Hackathon listing cache miss")
	hackathons, err := fallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("store fallback failed: %w", err)
	}

	// Encode before handing off so callers may keep mutating their records
	data, err := json.Marshal(hackathons)
	if err != nil {
		c.logger.Error("Failed to marshal hackathons for caching", zap.Error(err))
		return hackathons, nil
	}
	go c.cacheAsync(cacheKey, data)

	return hackathons, nil
}

// InvalidateHackathons drops the cached listing after a write
func (c *CacheService) InvalidateHackathons(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	cacheKey := c.redis.KeyBuilder.KeyHackathonsAll()
	if err := c.redis.Delete(ctx, cacheKey); err != nil {
		c.logger.Error("Failed to invalidate hackathon listing", zap.Error(err))
		return
	}
	c.logger.Debug("Hackathon listing invalidated")
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

func (c *CacheService) cacheAsync(cacheKey string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.redis.Set(ctx, cacheKey, string(data), c.ttl); err != nil {
		c.logger.Error("Failed to cache hackathon listing", zap.Error(err))
	} else {
		c.logger.Debug("Hackathon listing cached successfully", zap.Int("bytes", len(data)))
	}
}
