package forecast

import "github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"

// SalesWindowDays is the length of the sales and returns window the
// analytics source aggregates over. Velocity and demand are both expressed
// against it, so it is fixed rather than configurable.
const SalesWindowDays = 30

// ReviewWindowDays is the window for average rating and review count.
const ReviewWindowDays = 60

// SalesVelocity returns average units sold per day over the sales window.
func SalesVelocity(unitsSold30d int) float64 {
	if unitsSold30d <= 0 {
		return 0
	}

	return float64(unitsSold30d) / SalesWindowDays
}

// ReturnRate returns returns as a percentage of units sold in the same window.
// With no sales the rate is defined as 0. The result is not clamped: more
// returns than sales yields a rate above 100.
func ReturnRate(returns30d, unitsSold30d int) float64 {
	if unitsSold30d == 0 {
		return 0
	}

	return float64(returns30d) / float64(unitsSold30d) * 100
}

// Derive computes the secondary metrics for a single item.
func Derive(item domain.ItemAnalytics) domain.DerivedMetrics {
	return domain.DerivedMetrics{
		SalesVelocity: SalesVelocity(item.Sales30d),
		ReturnRate:    ReturnRate(item.Returns30d, item.Sales30d),
	}
}

// Signals is the flat per-item input consumed by the predictor and the
// confidence scorer.
type Signals struct {
	Sales30d         int
	Returns30d       int
	ReviewCount60d   int
	CartCount7d      int
	WishlistCount30d int
	AvgRating60d     float64
	SalesVelocity    float64
	ReturnRate       float64
}

// NewSignals merges an analytics row, its intent counts and derived metrics.
func NewSignals(item domain.ItemAnalytics, intent domain.IntentSignal, derived domain.DerivedMetrics) Signals {
	return Signals{
		Sales30d:         item.Sales30d,
		Returns30d:       item.Returns30d,
		ReviewCount60d:   item.ReviewCount60d,
		CartCount7d:      intent.CartCount7d,
		WishlistCount30d: intent.WishlistCount30d,
		AvgRating60d:     item.AvgRating60d,
		SalesVelocity:    derived.SalesVelocity,
		ReturnRate:       derived.ReturnRate,
	}
}
