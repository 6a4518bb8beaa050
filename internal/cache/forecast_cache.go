package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const forecastLatestKey = "forecast:latest"

// ForecastCache keeps the most recent completed run so read endpoints never
// trigger a recomputation.
type ForecastCache interface {
	GetLatest(ctx context.Context) (*domain.ForecastRun, bool, error)
	SetLatest(ctx context.Context, run *domain.ForecastRun) error
}

type redisForecastCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a redis-backed cache. A non-positive ttl keeps the
// entry until it is overwritten.
func NewForecastCache(client redis.UniversalClient, ttl time.Duration) ForecastCache {
	if client == nil {
		return &noopForecastCache{}
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetLatest(ctx context.Context) (*domain.ForecastRun, bool, error) {
	payload, err := c.client.Get(ctx, forecastLatestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var run domain.ForecastRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &run, true, nil
}

func (c *redisForecastCache) SetLatest(ctx context.Context, run *domain.ForecastRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, forecastLatestKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopForecastCache) GetLatest(ctx context.Context) (*domain.ForecastRun, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetLatest(ctx context.Context, run *domain.ForecastRun) error {
	return nil
}
