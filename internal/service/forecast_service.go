package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/config"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/export"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRunInProgress is returned when another run holds the run lock.
	ErrRunInProgress = errors.New("forecast run already in progress")

	// ErrNoForecast means no run has completed yet.
	ErrNoForecast = errors.New("no forecast available")

	// ErrHistoryDisabled is returned when run persistence is not configured.
	ErrHistoryDisabled = errors.New("forecast run history is not enabled")

	// ErrSnapshotsDisabled is returned when snapshot storage is not configured.
	ErrSnapshotsDisabled = errors.New("forecast snapshots are not enabled")
)

const snapshotTimeFormat = "20060102T150405Z"

// Runner is the part of the forecast assembler the service drives.
type Runner interface {
	Run(ctx context.Context) (*domain.ForecastRun, error)
	Explain(ctx context.Context, sku string) (*forecast.Evaluation, error)
}

// RunInfo is the metadata of the most recent run attempt.
type RunInfo struct {
	Status      domain.RunStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	DurationMS  int64            `json:"duration_ms"`
	Forecasts   int              `json:"forecasts"`
	Skipped     int              `json:"skipped"`
	RunID       int64            `json:"run_id,omitempty"`
	SnapshotKey string           `json:"snapshot_key,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// EngineStatus is reported by the status endpoint.
type EngineStatus struct {
	State   string   `json:"state"` // ready or running
	LastRun *RunInfo `json:"last_run,omitempty"`
}

type ForecastService struct {
	runner    Runner
	cache     cache.ForecastCache
	lock      cache.RunLock
	runs      repository.ForecastRunRepository
	snapshots storage.ObjectStorage
	cfg       config.ForecastConfig

	mu      sync.RWMutex
	running bool
	latest  *domain.ForecastRun
	lastRun *RunInfo
}

// Dependencies groups the optional collaborators of ForecastService. Nil
// entries disable the matching feature.
type Dependencies struct {
	Cache     cache.ForecastCache
	Lock      cache.RunLock
	Runs      repository.ForecastRunRepository
	Snapshots storage.ObjectStorage
}

func NewForecastService(runner Runner, deps Dependencies, cfg config.ForecastConfig) *ForecastService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopForecastCache()
	}
	if deps.Lock == nil {
		deps.Lock = cache.NewLocalRunLock()
	}
	if cfg.SnapshotKeyPrefix == "" {
		cfg.SnapshotKeyPrefix = "forecasts/"
	}

	return &ForecastService{
		runner:    runner,
		cache:     deps.Cache,
		lock:      deps.Lock,
		runs:      deps.Runs,
		snapshots: deps.Snapshots,
		cfg:       cfg,
	}
}

// Run executes a full forecast run under the run lock. Caching, persistence
// and snapshot upload happen after the run and only log on failure.
func (s *ForecastService) Run(ctx context.Context) (*domain.ForecastRun, error) {
	release, err := s.lock.Acquire(ctx)
	if errors.Is(err, cache.ErrLockHeld) {
		metrics.RecordRunRejected()
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			log.Warn().Err(err).Msg("forecast: release run lock failed")
		}
	}()

	s.setRunning(true)
	defer s.setRunning(false)

	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	started := time.Now()
	run, err := s.runner.Run(runCtx)
	metrics.RecordRun(run, time.Since(started), err)
	if err != nil {
		log.Error().Err(err).Msg("forecast: run failed")
		s.recordFailure(started, err)
		return nil, err
	}

	info := newRunInfo(run)

	if err := s.cache.SetLatest(ctx, run); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set latest failed")
	}

	if s.cfg.PersistRuns && s.runs != nil {
		id, err := s.runs.SaveRun(ctx, run)
		if err != nil {
			log.Warn().Err(err).Msg("forecast: persist run failed")
		} else {
			info.RunID = id
		}
	}

	if s.cfg.UploadSnapshots && s.snapshots != nil && run.Status != domain.RunStatusNoData {
		key, err := s.UploadSnapshot(ctx, run, export.FormatJSON)
		if err != nil {
			log.Warn().Err(err).Msg("forecast: snapshot upload failed")
		} else {
			info.SnapshotKey = key
		}
	}

	s.mu.Lock()
	s.latest = run
	s.lastRun = info
	s.mu.Unlock()

	return run, nil
}

// UploadSnapshot writes the run's forecasts to object storage and returns the key.
func (s *ForecastService) UploadSnapshot(ctx context.Context, run *domain.ForecastRun, format export.Format) (string, error) {
	if s.snapshots == nil {
		return "", ErrSnapshotsDisabled
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, run.Forecasts); err != nil {
		return "", err
	}

	key := SnapshotKey(s.cfg.SnapshotKeyPrefix, run.StartedAt, format)
	if err := s.snapshots.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("forecasts", len(run.Forecasts)).Msg("forecast: snapshot uploaded")
	return key, nil
}

// SnapshotKey builds <prefix><UTC timestamp>.<ext>.
func SnapshotKey(prefix string, startedAt time.Time, format export.Format) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + startedAt.UTC().Format(snapshotTimeFormat) + format.Extension()
}

// Latest returns the most recent successful run, from cache first.
func (s *ForecastService) Latest(ctx context.Context) (*domain.ForecastRun, error) {
	if run, ok, err := s.cache.GetLatest(ctx); err == nil && ok {
		return run, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get latest failed")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoForecast
	}
	return s.latest, nil
}

func (s *ForecastService) Summary(ctx context.Context) (*domain.ForecastSummary, error) {
	run, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(run)
	return &summary, nil
}

func (s *ForecastService) Status(ctx context.Context) EngineStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := EngineStatus{State: "ready"}
	if s.running {
		status.State = "running"
	}
	if s.lastRun != nil {
		info := *s.lastRun
		status.LastRun = &info
	}
	return status
}

func (s *ForecastService) Explain(ctx context.Context, sku string) (*forecast.Evaluation, error) {
	return s.runner.Explain(ctx, sku)
}

func (s *ForecastService) History(ctx context.Context, limit int) ([]repository.ForecastRunRecord, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.ListRuns(ctx, limit)
}

func (s *ForecastService) Snapshots(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	objects, err := s.snapshots.ListObjects(ctx, s.cfg.SnapshotKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return objects, nil
}

func (s *ForecastService) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *ForecastService) recordFailure(started time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = &RunInfo{
		Status:     domain.RunStatusFailed,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Error:      err.Error(),
	}
}

func newRunInfo(run *domain.ForecastRun) *RunInfo {
	return &RunInfo{
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		DurationMS: run.Duration.Milliseconds(),
		Forecasts:  len(run.Forecasts),
		Skipped:    run.Skipped,
	}
}
