package forecast

import (
	"math"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
)

// ClassifierThresholds are the stock-coverage cut-offs, in days, and the
// return-rate percentage above which overstocked items are deprecated.
type ClassifierThresholds struct {
	RestockBelowDays    float64
	DiscountAboveDays   float64
	DeprecateAboveDays  float64
	DeprecateReturnRate float64
}

// DefaultThresholds returns the production thresholds: under a week of cover
// restocks, over two months discounts, over three months with returns above
// 15% deprecates.
func DefaultThresholds() ClassifierThresholds {
	return ClassifierThresholds{
		RestockBelowDays:    7,
		DiscountAboveDays:   60,
		DeprecateAboveDays:  90,
		DeprecateReturnRate: 15,
	}
}

// StockCoverageDays expresses current stock in days of predicted demand.
// Zero predicted demand gives +Inf.
func StockCoverageDays(predictedDemand, currentStock int) float64 {
	if predictedDemand <= 0 {
		return math.Inf(1)
	}

	daily := float64(predictedDemand) / SalesWindowDays
	return float64(currentStock) / daily
}

// Classify maps predicted demand and stock to an action. Rules are evaluated
// in order and the first match wins, so every input yields exactly one action.
func (t ClassifierThresholds) Classify(predictedDemand, currentStock int, returnRate float64) domain.Action {
	return t.classifyCoverage(StockCoverageDays(predictedDemand, currentStock), returnRate)
}

func (t ClassifierThresholds) classifyCoverage(coverage, returnRate float64) domain.Action {
	switch {
	case coverage < t.RestockBelowDays:
		return domain.ActionRestock
	case coverage > t.DeprecateAboveDays && returnRate > t.DeprecateReturnRate:
		return domain.ActionDeprecate
	case coverage > t.DeprecateAboveDays:
		return domain.ActionDiscount
	case coverage > t.DiscountAboveDays:
		return domain.ActionDiscount
	default:
		return domain.ActionNoAction
	}
}
