package forecast

import "github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"

// Confidence is a data-sufficiency heuristic: it counts which signal
// categories are present for an item. It is not a statistical error bound
// and says nothing about forecast accuracy.
//
// Weights are kept in tenths so the HIGH/MEDIUM boundaries compare exactly.
const (
	weightSales    = 3
	weightIntent   = 2
	weightReviews  = 2
	weightVelocity = 2
	weightReturns  = 1

	highTenths   = 8
	mediumTenths = 6
)

func confidenceTenths(s Signals) int {
	score := 0
	if s.Sales30d > 0 {
		score += weightSales
	}
	if s.CartCount7d > 0 || s.WishlistCount30d > 0 {
		score += weightIntent
	}
	if s.ReviewCount60d > 0 {
		score += weightReviews
	}
	if s.SalesVelocity > 0 {
		score += weightVelocity
	}
	if s.Returns30d > 0 {
		score += weightReturns
	}
	return score
}

// ConfidenceScore returns the weighted completeness score in [0, 1].
func ConfidenceScore(s Signals) float64 {
	return float64(confidenceTenths(s)) / 10
}

// ScoreConfidence maps the completeness score to a label.
func ScoreConfidence(s Signals) domain.Confidence {
	switch score := confidenceTenths(s); {
	case score >= highTenths:
		return domain.ConfidenceHigh
	case score >= mediumTenths:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
