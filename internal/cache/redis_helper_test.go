package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = buildRedisOptions(config.CacheConfig{RedisHost: "redis", RedisPort: "6380", RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache.internal:6390/3", RedisHost: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6390", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://not-redis"})
	assert.Error(t, err)
}

func TestForecastTTL(t *testing.T) {
	assert.Equal(t, 15*time.Minute, ForecastTTL(config.CacheConfig{}))
	assert.Equal(t, 30*time.Second, ForecastTTL(config.CacheConfig{ForecastTTLSeconds: 30}))
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)
	url := "redis://" + mr.Addr()

	client, err := NewRedisClient(context.Background(), config.CacheConfig{RedisURL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.CacheConfig{RedisURL: url})
	assert.Error(t, err)
}
