package forecast

import (
	"fmt"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
)

// AlertReturnRateOver100 is raised when an item has more returns than sales
// in the same window. The rate is kept unclamped and the item is still scored.
const AlertReturnRateOver100 = "return_rate_over_100"

// Engine evaluates a single item: derive metrics, predict demand, classify,
// score confidence and explain. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	predictor  DemandPredictor
	thresholds ClassifierThresholds
}

// NewEngine creates an engine. A nil predictor falls back to the default
// multiplicative model.
func NewEngine(predictor DemandPredictor, thresholds ClassifierThresholds) *Engine {
	if predictor == nil {
		predictor = NewMultiplicativePredictor(DefaultPredictorWeights())
	}
	return &Engine{predictor: predictor, thresholds: thresholds}
}

// NewDefaultEngine creates an engine with production weights and thresholds.
func NewDefaultEngine() *Engine {
	return NewEngine(nil, DefaultThresholds())
}

// multiplierExplainer is implemented by predictors that can break a
// prediction down into its factors.
type multiplierExplainer interface {
	Multipliers(s Signals) map[string]float64
}

func roundMultipliers(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = roundFloat(v, 4)
	}
	return out
}

// Evaluation is the full working for one item, kept for explanation output.
type Evaluation struct {
	Item            domain.ItemAnalytics      `json:"item"`
	Intent          domain.IntentSignal       `json:"intent"`
	Derived         domain.DerivedMetrics     `json:"derived"`
	CoverageDays    float64                   `json:"-"`
	ConfidenceScore float64                   `json:"confidence_score"`
	Multipliers     map[string]float64        `json:"multipliers,omitempty"`
	Forecast        domain.Forecast           `json:"forecast"`
	Alerts          []domain.DataQualityAlert `json:"alerts,omitempty"`
}

// Evaluate scores one item against its intent counts.
func (e *Engine) Evaluate(item domain.ItemAnalytics, intent domain.IntentSignal) (*Evaluation, error) {
	if !isFinite(item.AvgRating60d) {
		return nil, fmt.Errorf("sku %s avg_rating_60d: %w", item.SKU, ErrNonFiniteInput)
	}

	derived := Derive(item)
	signals := NewSignals(item, intent, derived)

	predicted := e.predictor.Predict(signals)
	coverage := StockCoverageDays(predicted, item.InventoryCount)
	action := e.thresholds.classifyCoverage(coverage, derived.ReturnRate)
	confidence := ScoreConfidence(signals)

	reason := Reason(action, item.InventoryCount, item.MinStockLevel, derived.ReturnRate)
	if reason == "" {
		return nil, fmt.Errorf("sku %s: no reason template for action %q", item.SKU, action)
	}

	eval := &Evaluation{
		Item:            item,
		Intent:          intent,
		Derived:         derived,
		CoverageDays:    coverage,
		ConfidenceScore: ConfidenceScore(signals),
		Forecast: domain.Forecast{
			SKU:             item.SKU,
			ProductName:     item.Name,
			Category:        item.CategoryName,
			PredictedDemand: predicted,
			CurrentStock:    item.InventoryCount,
			Action:          action,
			Confidence:      confidence,
			Reason:          reason,
			InventoryStatus: item.InventoryStatus,
			Metrics: domain.ForecastMetrics{
				SalesVelocity:    roundFloat(derived.SalesVelocity, 2),
				ReturnRate:       roundFloat(derived.ReturnRate, 2),
				AvgRating:        roundFloat(item.AvgRating60d, 2),
				CartActivity:     intent.CartCount7d,
				WishlistActivity: intent.WishlistCount30d,
			},
		},
	}

	if mp, ok := e.predictor.(multiplierExplainer); ok {
		eval.Multipliers = roundMultipliers(mp.Multipliers(signals))
	}

	if derived.ReturnRate > 100 {
		eval.Alerts = append(eval.Alerts, domain.DataQualityAlert{
			SKU:     item.SKU,
			Kind:    AlertReturnRateOver100,
			Value:   roundFloat(derived.ReturnRate, 2),
			Message: fmt.Sprintf("%d returns against %d units sold in the same window", item.Returns30d, item.Sales30d),
		})
	}

	return eval, nil
}
