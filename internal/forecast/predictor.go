package forecast

import "math"

// DemandPredictor turns per-item signals into a predicted demand quantity
// for the next sales window. Implementations must never return a negative value.
type DemandPredictor interface {
	Predict(s Signals) int
}

// PredictorWeights are the coefficients of the multiplicative model.
type PredictorWeights struct {
	HorizonDays    float64
	CartWeight     float64
	WishlistWeight float64
	RatingPivot    float64
	RatingWeight   float64
	ReturnWeight   float64
}

// DefaultPredictorWeights returns the coefficients used in production.
func DefaultPredictorWeights() PredictorWeights {
	return PredictorWeights{
		HorizonDays:    SalesWindowDays,
		CartWeight:     0.1,
		WishlistWeight: 0.05,
		RatingPivot:    3.0,
		RatingWeight:   0.1,
		ReturnWeight:   0.2,
	}
}

// MultiplicativePredictor scales the velocity baseline by one multiplier per
// signal. Every multiplier is floored at zero, so the result is monotonic in
// each signal and never negative.
type MultiplicativePredictor struct {
	weights PredictorWeights
}

// NewMultiplicativePredictor creates a predictor with the given weights.
func NewMultiplicativePredictor(weights PredictorWeights) *MultiplicativePredictor {
	return &MultiplicativePredictor{weights: weights}
}

// Predict implements DemandPredictor.
func (p *MultiplicativePredictor) Predict(s Signals) int {
	w := p.weights

	base := s.SalesVelocity * w.HorizonDays
	cartMult := nonNegative(1 + float64(s.CartCount7d)*w.CartWeight)
	wishMult := nonNegative(1 + float64(s.WishlistCount30d)*w.WishlistWeight)
	ratingMult := nonNegative(1 + (s.AvgRating60d-w.RatingPivot)*w.RatingWeight)
	returnMult := nonNegative(1 - (s.ReturnRate/100)*w.ReturnWeight)

	predicted := base * cartMult * wishMult * ratingMult * returnMult

	return floorDemand(predicted)
}

// Multipliers exposes the individual factors for explanation output.
func (p *MultiplicativePredictor) Multipliers(s Signals) map[string]float64 {
	w := p.weights

	return map[string]float64{
		"base":   s.SalesVelocity * w.HorizonDays,
		"cart":   nonNegative(1 + float64(s.CartCount7d)*w.CartWeight),
		"wish":   nonNegative(1 + float64(s.WishlistCount30d)*w.WishlistWeight),
		"rating": nonNegative(1 + (s.AvgRating60d-w.RatingPivot)*w.RatingWeight),
		"return": nonNegative(1 - (s.ReturnRate/100)*w.ReturnWeight),
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func floorDemand(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= float64(math.MaxInt32) {
		return math.MaxInt32
	}

	return int(math.Floor(v))
}
