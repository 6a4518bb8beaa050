package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
)

// ForecastRunRecord is a stored run header.
type ForecastRunRecord struct {
	ID            int64            `json:"id" db:"id"`
	Status        domain.RunStatus `json:"status" db:"status"`
	TotalItems    int              `json:"total_items" db:"total_items"`
	ForecastCount int              `json:"forecast_count" db:"forecast_count"`
	Skipped       int              `json:"skipped" db:"skipped"`
	AlertCount    int              `json:"alert_count" db:"alert_count"`
	StartedAt     time.Time        `json:"started_at" db:"started_at"`
	DurationMS    int64            `json:"duration_ms" db:"duration_ms"`
}

// ForecastRunRepository keeps a history of runs and their per-item output.
type ForecastRunRepository interface {
	SaveRun(ctx context.Context, run *domain.ForecastRun) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]ForecastRunRecord, error)
}
