package forecast

import (
	"math"
	"testing"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineEvaluate_ScenarioA(t *testing.T) {
	item := domain.ItemAnalytics{
		SKU:             "ELE-001",
		Name:            "Wireless Headphones",
		CategoryName:    "Electronics",
		InventoryCount:  5,
		MinStockLevel:   10,
		MaxStockLevel:   100,
		Sales30d:        300,
		Returns30d:      10,
		AvgRating60d:    4.2,
		ReviewCount60d:  12,
		InventoryStatus: domain.InventoryLowStock,
	}
	intent := domain.IntentSignal{CartCount7d: 2, WishlistCount30d: 5}

	eval, err := NewDefaultEngine().Evaluate(item, intent)
	require.NoError(t, err)

	f := eval.Forecast
	assert.Equal(t, "ELE-001", f.SKU)
	assert.Equal(t, 500, f.PredictedDemand)
	assert.Equal(t, domain.ActionRestock, f.Action)
	assert.Equal(t, ReasonRestockLowInventory, f.Reason)
	assert.Equal(t, domain.ConfidenceHigh, f.Confidence)
	assert.Equal(t, 10.0, f.Metrics.SalesVelocity)
	assert.Equal(t, 3.33, f.Metrics.ReturnRate)
	assert.Equal(t, 4.2, f.Metrics.AvgRating)
	assert.Equal(t, 2, f.Metrics.CartActivity)
	assert.Equal(t, 5, f.Metrics.WishlistActivity)
	assert.Equal(t, domain.InventoryLowStock, f.InventoryStatus)
	assert.InDelta(t, 0.3, eval.CoverageDays, 1e-9)
	assert.Empty(t, eval.Alerts)

	assert.Equal(t, map[string]float64{
		"base":   300,
		"cart":   1.2,
		"wish":   1.25,
		"rating": 1.12,
		"return": 0.9933,
	}, eval.Multipliers)
}

func TestEngineEvaluate_ScenarioB(t *testing.T) {
	item := domain.ItemAnalytics{SKU: "SPO-003", InventoryCount: 100, MinStockLevel: 10}

	eval, err := NewDefaultEngine().Evaluate(item, domain.IntentSignal{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, eval.Derived.SalesVelocity)
	assert.Equal(t, 0.0, eval.Derived.ReturnRate)
	assert.Equal(t, 0, eval.Forecast.PredictedDemand)
	assert.True(t, math.IsInf(eval.CoverageDays, 1))
	assert.Equal(t, domain.ActionDiscount, eval.Forecast.Action)
	assert.Equal(t, ReasonDiscountPerformance, eval.Forecast.Reason)
	assert.Equal(t, domain.ConfidenceLow, eval.Forecast.Confidence)
}

func TestEngineEvaluate_ScenarioC_ReturnsWithoutSales(t *testing.T) {
	// Returns with zero sales in the window are a policy case, not an error:
	// the rate is forced to zero so the item discounts rather than deprecates.
	item := domain.ItemAnalytics{SKU: "BOO-003", InventoryCount: 40, Returns30d: 5}

	eval, err := NewDefaultEngine().Evaluate(item, domain.IntentSignal{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, eval.Derived.ReturnRate)
	assert.Equal(t, domain.ActionDiscount, eval.Forecast.Action)
	assert.Empty(t, eval.Alerts)
}

func TestEngineEvaluate_ReturnRateOver100RaisesAlert(t *testing.T) {
	item := domain.ItemAnalytics{SKU: "CLO-003", InventoryCount: 400, Sales30d: 10, Returns30d: 25}

	eval, err := NewDefaultEngine().Evaluate(item, domain.IntentSignal{})
	require.NoError(t, err)

	assert.Equal(t, 250.0, eval.Forecast.Metrics.ReturnRate)
	assert.Equal(t, domain.ActionDeprecate, eval.Forecast.Action)
	require.Len(t, eval.Alerts, 1)
	assert.Equal(t, AlertReturnRateOver100, eval.Alerts[0].Kind)
	assert.Equal(t, "CLO-003", eval.Alerts[0].SKU)
}

func TestEngineEvaluate_NonFiniteRating(t *testing.T) {
	item := domain.ItemAnalytics{SKU: "X", AvgRating60d: math.NaN()}

	_, err := NewDefaultEngine().Evaluate(item, domain.IntentSignal{})

	assert.ErrorIs(t, err, ErrNonFiniteInput)
}

type fixedPredictor int

func (p fixedPredictor) Predict(Signals) int { return int(p) }

func TestEngineEvaluate_SwappablePredictor(t *testing.T) {
	engine := NewEngine(fixedPredictor(30), DefaultThresholds())
	item := domain.ItemAnalytics{SKU: "HOM-001", InventoryCount: 30, MinStockLevel: 5, Sales30d: 1}

	eval, err := engine.Evaluate(item, domain.IntentSignal{})
	require.NoError(t, err)

	assert.Equal(t, 30, eval.Forecast.PredictedDemand)
	assert.Equal(t, domain.ActionNoAction, eval.Forecast.Action)
	assert.Equal(t, ReasonNoAction, eval.Forecast.Reason)
	assert.Nil(t, eval.Multipliers)
}

func TestEngineEvaluate_CustomThresholds(t *testing.T) {
	thresholds := DefaultThresholds()
	thresholds.RestockBelowDays = 45
	engine := NewEngine(fixedPredictor(30), thresholds)
	item := domain.ItemAnalytics{SKU: "HOM-001", InventoryCount: 30, MinStockLevel: 5, Sales30d: 1}

	eval, err := engine.Evaluate(item, domain.IntentSignal{})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionRestock, eval.Forecast.Action)
}
