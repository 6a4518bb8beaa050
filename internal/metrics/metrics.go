package metrics

import (
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	ForecastRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Total number of forecast runs by final status",
		},
		[]string{"status"}, // completed, partial, no_data, failed
	)

	ForecastRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_run_duration_seconds",
			Help:    "Duration of full forecast runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ForecastItemsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_items_skipped_total",
			Help: "Items left out of a run, by skip reason",
		},
		[]string{"reason"},
	)

	ForecastsByAction = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_recommendations_total",
			Help: "Forecasts produced, by recommended action",
		},
		[]string{"action"},
	)

	ForecastDataQualityAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_data_quality_alerts_total",
			Help: "Data quality alerts raised during runs, by kind",
		},
		[]string{"kind"},
	)

	ForecastRunRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_runs_rejected_total",
			Help: "Run requests rejected because another run held the lock",
		},
	)

	ForecastLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forecast_last_success_timestamp_seconds",
			Help: "Unix time of the last run that produced output",
		},
	)

	// 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state",
		},
		[]string{"name"},
	)
)

// RecordRun records the outcome of a forecast run. A nil run counts as failed.
func RecordRun(run *domain.ForecastRun, duration time.Duration, err error) {
	ForecastRunDuration.Observe(duration.Seconds())

	if err != nil || run == nil {
		ForecastRunsTotal.WithLabelValues(string(domain.RunStatusFailed)).Inc()
		return
	}

	ForecastRunsTotal.WithLabelValues(string(run.Status)).Inc()
	for reason, n := range run.SkipReasons {
		ForecastItemsSkipped.WithLabelValues(string(reason)).Add(float64(n))
	}
	for _, f := range run.Forecasts {
		ForecastsByAction.WithLabelValues(string(f.Action)).Inc()
	}
	for _, a := range run.Alerts {
		ForecastDataQualityAlerts.WithLabelValues(a.Kind).Inc()
	}

	ForecastLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordRunRejected counts a run that could not start because one was in flight.
func RecordRunRejected() {
	ForecastRunRejected.Inc()
}

// SetBreakerState matches cache.BreakerStateHook.
func SetBreakerState(name string, state gobreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
