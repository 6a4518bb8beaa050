package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/repository"
	"github.com/goccy/go-json"
)

type forecastRunRepository struct {
	db *DB
}

func NewForecastRunRepository(db *DB) *forecastRunRepository {
	return &forecastRunRepository{db: db}
}

// SaveRun stores the run header and one row per forecast in a single
// transaction and returns the new run id.
func (r *forecastRunRepository) SaveRun(ctx context.Context, run *domain.ForecastRun) (int64, error) {
	skipReasons, err := json.Marshal(run.SkipReasons)
	if err != nil {
		return 0, fmt.Errorf("encode skip reasons: %w", err)
	}

	var runID int64
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		header := `
			INSERT INTO forecast_runs (
				status, total_items, forecast_count, skipped,
				skip_reasons, alert_count, started_at, duration_ms
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, header,
			run.Status, run.TotalItems, len(run.Forecasts), run.Skipped,
			skipReasons, len(run.Alerts), run.StartedAt, run.Duration.Milliseconds(),
		).Scan(&runID); err != nil {
			return fmt.Errorf("failed to insert forecast run: %w", err)
		}

		if len(run.Forecasts) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_run_items (
				run_id, sku, product_name, category, predicted_demand,
				current_stock, action, confidence, reason, metrics
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range run.Forecasts {
			metrics, err := json.Marshal(f.Metrics)
			if err != nil {
				return fmt.Errorf("encode metrics for %s: %w", f.SKU, err)
			}
			if _, err := stmt.ExecContext(ctx,
				runID, f.SKU, f.ProductName, f.Category, f.PredictedDemand,
				f.CurrentStock, f.Action, f.Confidence, f.Reason, metrics,
			); err != nil {
				return fmt.Errorf("failed to insert forecast for %s: %w", f.SKU, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return runID, nil
}

func (r *forecastRunRepository) ListRuns(ctx context.Context, limit int) ([]repository.ForecastRunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, total_items, forecast_count, skipped,
		       alert_count, started_at, duration_ms
		FROM forecast_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	var runs []repository.ForecastRunRecord
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("error listing forecast runs: %w", err)
	}

	return runs, nil
}
