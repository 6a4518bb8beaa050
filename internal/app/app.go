// Package app wires config into the forecast service for the server and CLI.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/config"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/service"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config    *config.Config
	Assembler *forecast.Assembler
	Service   *service.ForecastService
	Snapshots storage.ObjectStorage

	db    *postgres.DB
	redis *redis.Client
}

// New connects to postgres and redis and builds the service. Object storage
// is optional and only configured when an endpoint is set.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Cache)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a := &App{Config: cfg, db: db, redis: rdb}

	analytics := postgres.NewAnalyticsRepository(db)
	intents := cache.NewIntentStore(rdb, cfg.Intent, metrics.SetBreakerState)

	a.Assembler = forecast.NewAssembler(analytics, intents,
		forecast.WithWorkers(cfg.Forecast.Workers),
		forecast.WithEngine(forecast.NewEngine(nil, thresholdsFrom(cfg.Forecast))),
		forecast.WithLogger(log.Logger),
	)

	deps := service.Dependencies{}
	if cfg.Cache.Enabled {
		deps.Cache = cache.NewForecastCache(rdb, cache.ForecastTTL(cfg.Cache))
		deps.Lock = cache.NewRunLock(rdb, cfg.Forecast.LockTTL)
	}
	if cfg.Forecast.PersistRuns {
		deps.Runs = postgres.NewForecastRunRepository(db)
	}
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Snapshots = s3
		a.Snapshots = s3
	}

	a.Service = service.NewForecastService(a.Assembler, deps, cfg.Forecast)
	return a, nil
}

// thresholdsFrom maps configured cut-offs onto the classifier. Non-positive
// values keep the production defaults.
func thresholdsFrom(cfg config.ForecastConfig) forecast.ClassifierThresholds {
	t := forecast.DefaultThresholds()
	if cfg.RestockBelowDays > 0 {
		t.RestockBelowDays = cfg.RestockBelowDays
	}
	if cfg.DiscountAboveDays > 0 {
		t.DiscountAboveDays = cfg.DiscountAboveDays
	}
	if cfg.DeprecateAboveDays > 0 {
		t.DeprecateAboveDays = cfg.DeprecateAboveDays
	}
	if cfg.DeprecateReturnRate > 0 {
		t.DeprecateReturnRate = cfg.DeprecateReturnRate
	}
	return t
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis failed")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("close database failed")
		}
	}
}
