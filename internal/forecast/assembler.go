package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerCount = 8

// AnalyticsSource supplies pre-aggregated catalog rows ordered by SKU.
type AnalyticsSource interface {
	ListItemAnalytics(ctx context.Context) ([]domain.ItemAnalytics, error)
	GetItemAnalytics(ctx context.Context, sku string) (*domain.ItemAnalytics, error)
}

// IntentStore looks up live cart and wishlist counts by SKU. A SKU with no
// recorded activity returns a zero IntentSignal and a nil error.
type IntentStore interface {
	Ping(ctx context.Context) error
	GetIntent(ctx context.Context, sku string) (domain.IntentSignal, error)
}

// ItemResult is the outcome of processing one catalog row: either a forecast
// or a skip reason with the error that caused it.
type ItemResult struct {
	SKU      string
	Forecast *domain.Forecast
	Alerts   []domain.DataQualityAlert
	Skip     domain.SkipReason
	Err      error
}

// Skipped reports whether the item was left out of the run.
func (r ItemResult) Skipped() bool {
	return r.Forecast == nil
}

// Assembler runs the engine over the whole catalog.
type Assembler struct {
	analytics AnalyticsSource
	intents   IntentStore
	engine    *Engine
	validate  *validator.Validate
	workers   int
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWorkers bounds the number of items processed concurrently. One means
// strictly sequential lookups.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithEngine replaces the default engine.
func WithEngine(e *Engine) Option {
	return func(a *Assembler) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithLogger sets the logger used for per-item diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAssembler wires the collaborators into an assembler.
func NewAssembler(analytics AnalyticsSource, intents IntentStore, opts ...Option) *Assembler {
	a := &Assembler{
		analytics: analytics,
		intents:   intents,
		engine:    NewDefaultEngine(),
		validate:  validator.New(),
		workers:   defaultWorkerCount,
		logger:    log.Logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run produces forecasts for every catalog item. An unreachable analytics
// source or intent store fails the run with no partial output. An empty
// catalog is not an error: the run ends with RunStatusNoData. Failures on a
// single item are logged, tallied by reason and skipped.
func (a *Assembler) Run(ctx context.Context) (*domain.ForecastRun, error) {
	started := a.now()

	if err := a.intents.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentUnavailable, err)
	}

	items, err := a.analytics.ListItemAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyticsUnavailable, err)
	}

	run := &domain.ForecastRun{
		Forecasts:   []domain.Forecast{},
		TotalItems:  len(items),
		SkipReasons: map[domain.SkipReason]int{},
		StartedAt:   started,
	}

	if len(items) == 0 {
		a.logger.Warn().Msg("forecast: analytics source returned no catalog rows")
		run.Status = domain.RunStatusNoData
		run.Duration = time.Since(started)
		return run, nil
	}

	results := make([]ItemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range items {
		i := i
		g.Go(func() error {
			results[i] = a.processItem(gctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast run interrupted: %w", err)
	}

	for _, res := range results {
		if res.Skipped() {
			run.Skipped++
			run.SkipReasons[res.Skip]++
			continue
		}
		run.Forecasts = append(run.Forecasts, *res.Forecast)
		run.Alerts = append(run.Alerts, res.Alerts...)
	}

	sort.SliceStable(run.Forecasts, func(i, j int) bool {
		return run.Forecasts[i].SKU < run.Forecasts[j].SKU
	})
	sort.SliceStable(run.Alerts, func(i, j int) bool {
		return run.Alerts[i].SKU < run.Alerts[j].SKU
	})

	run.Status = domain.RunStatusCompleted
	if run.Skipped > 0 {
		run.Status = domain.RunStatusPartial
	}
	run.Duration = time.Since(started)

	a.logger.Info().
		Int("total", run.TotalItems).
		Int("forecasts", len(run.Forecasts)).
		Int("skipped", run.Skipped).
		Int("alerts", len(run.Alerts)).
		Dur("duration", run.Duration).
		Msg("forecast: run completed")

	return run, nil
}

// Explain evaluates a single SKU and returns the full working.
func (a *Assembler) Explain(ctx context.Context, sku string) (*Evaluation, error) {
	item, err := a.analytics.GetItemAnalytics(ctx, sku)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAnalyticsUnavailable, err)
	}

	if err := a.checkItem(*item); err != nil {
		return nil, fmt.Errorf("sku %s: %w", sku, err)
	}

	intent, err := a.intents.GetIntent(ctx, item.SKU)
	if err != nil {
		return nil, fmt.Errorf("sku %s: intent lookup: %w", sku, err)
	}

	return a.engine.Evaluate(*item, intent)
}

func (a *Assembler) processItem(ctx context.Context, item domain.ItemAnalytics) ItemResult {
	res := ItemResult{SKU: item.SKU}

	if err := a.checkItem(item); err != nil {
		return a.skip(res, domain.SkipInvalidRow, err)
	}

	intent, err := a.intents.GetIntent(ctx, item.SKU)
	if err != nil {
		return a.skip(res, domain.SkipIntentLookup, err)
	}

	eval, err := a.engine.Evaluate(item, intent)
	if err != nil {
		return a.skip(res, domain.SkipCompute, err)
	}

	for _, alert := range eval.Alerts {
		a.logger.Warn().
			Str("sku", alert.SKU).
			Str("kind", alert.Kind).
			Float64("value", alert.Value).
			Msg("forecast: data quality alert")
	}

	a.logger.Debug().
		Str("sku", item.SKU).
		Str("action", string(eval.Forecast.Action)).
		Int("predicted_demand", eval.Forecast.PredictedDemand).
		Msg("forecast: item evaluated")

	res.Forecast = &eval.Forecast
	res.Alerts = eval.Alerts
	return res
}

// checkItem rejects rows the source flagged as unreadable and rows failing
// the struct validation rules.
func (a *Assembler) checkItem(item domain.ItemAnalytics) error {
	if len(item.Defects) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(item.Defects, "; "))
	}
	if err := a.validate.Struct(item); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}

func (a *Assembler) skip(res ItemResult, reason domain.SkipReason, err error) ItemResult {
	a.logger.Error().
		Err(err).
		Str("sku", res.SKU).
		Str("reason", string(reason)).
		Msg("forecast: skipping item")

	res.Skip = reason
	res.Err = err
	return res
}
