package domain

import "time"

// ActionSummary is the count of forecasts recommending a given action.
type ActionSummary struct {
	Action Action `json:"action"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// ConfidenceSummary is the count of forecasts carrying a confidence label.
type ConfidenceSummary struct {
	Confidence Confidence `json:"confidence"`
	Count      int        `json:"count"`
}

// ForecastSummary aggregates the latest run for the dashboard cards.
type ForecastSummary struct {
	Status          RunStatus           `json:"status"`
	GeneratedAt     time.Time           `json:"generated_at"`
	TotalForecasts  int                 `json:"total_forecasts"`
	Skipped         int                 `json:"skipped"`
	Actions         []ActionSummary     `json:"actions"`
	Confidences     []ConfidenceSummary `json:"confidences"`
	TotalPredicted  int                 `json:"total_predicted_demand"`
	NeedsRestock    int                 `json:"needs_restock"`
	ExcessStock     int                 `json:"excess_stock"`
	LowStock        int                 `json:"low_stock"`
	Overstock       int                 `json:"overstock"`
	DataAlertsCount int                 `json:"data_alerts_count"`
}

// Summarize builds dashboard counts for a run. Every action and confidence
// appears in the output, with zero counts where nothing matched.
func Summarize(run *ForecastRun) ForecastSummary {
	summary := ForecastSummary{
		Status:          run.Status,
		GeneratedAt:     run.StartedAt,
		TotalForecasts:  len(run.Forecasts),
		Skipped:         run.Skipped,
		DataAlertsCount: len(run.Alerts),
	}

	byAction := make(map[Action]int)
	byConfidence := make(map[Confidence]int)
	for _, f := range run.Forecasts {
		byAction[f.Action]++
		byConfidence[f.Confidence]++
		summary.TotalPredicted += f.PredictedDemand
		switch f.Action {
		case ActionRestock:
			summary.NeedsRestock++
		case ActionDiscount, ActionDeprecate:
			summary.ExcessStock++
		}
		switch f.InventoryStatus {
		case InventoryLowStock:
			summary.LowStock++
		case InventoryOverstock:
			summary.Overstock++
		}
	}

	for _, a := range Actions() {
		summary.Actions = append(summary.Actions, ActionSummary{Action: a, Label: a.Label(), Count: byAction[a]})
	}
	for _, c := range Confidences() {
		summary.Confidences = append(summary.Confidences, ConfidenceSummary{Confidence: c, Count: byConfidence[c]})
	}

	return summary
}

// ForecastFilter narrows a forecast list. Zero-valued fields match anything.
type ForecastFilter struct {
	Action          Action
	Confidence      Confidence
	InventoryStatus InventoryStatus
}

// IsZero reports whether the filter matches every forecast.
func (f ForecastFilter) IsZero() bool {
	return f == ForecastFilter{}
}

// Match reports whether a single forecast passes the filter.
func (f ForecastFilter) Match(fc Forecast) bool {
	if f.Action != "" && fc.Action != f.Action {
		return false
	}
	if f.Confidence != "" && fc.Confidence != f.Confidence {
		return false
	}
	if f.InventoryStatus != "" && fc.InventoryStatus != f.InventoryStatus {
		return false
	}
	return true
}

// FilterForecasts returns the matching forecasts in their original order.
// The result is never nil.
func FilterForecasts(forecasts []Forecast, filter ForecastFilter) []Forecast {
	out := make([]Forecast, 0, len(forecasts))
	for _, fc := range forecasts {
		if filter.Match(fc) {
			out = append(out, fc)
		}
	}
	return out
}
