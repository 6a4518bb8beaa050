package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplicativePredictor_ScenarioA(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())
	s := Signals{
		Sales30d:         300,
		Returns30d:       10,
		CartCount7d:      2,
		WishlistCount30d: 5,
		AvgRating60d:     4.2,
		SalesVelocity:    SalesVelocity(300),
		ReturnRate:       ReturnRate(10, 300),
	}

	assert.Equal(t, 500, p.Predict(s))
}

func TestMultiplicativePredictor_ZeroVelocity(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())

	got := p.Predict(Signals{CartCount7d: 50, WishlistCount30d: 40, AvgRating60d: 5})

	assert.Equal(t, 0, got)
}

func TestMultiplicativePredictor_NeverNegative(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())

	cases := []Signals{
		{SalesVelocity: 10, ReturnRate: 900},
		{SalesVelocity: 10, CartCount7d: -20, ReturnRate: 900},
		{SalesVelocity: 10, CartCount7d: -20, WishlistCount30d: -40},
		{SalesVelocity: 10, AvgRating60d: -50},
		{SalesVelocity: -4},
	}

	for _, s := range cases {
		assert.GreaterOrEqual(t, p.Predict(s), 0, "signals %+v", s)
	}
}

func TestMultiplicativePredictor_FloorsResult(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())

	// 7 units over 30 days, neutral rating: 7 * 1.0 exactly.
	assert.Equal(t, 7, p.Predict(Signals{SalesVelocity: SalesVelocity(7), AvgRating60d: 3}))

	// rating 3.5 lifts 7 to 7.35 which floors back to 7.
	assert.Equal(t, 7, p.Predict(Signals{SalesVelocity: SalesVelocity(7), AvgRating60d: 3.5}))
}

func TestMultiplicativePredictor_MonotonicInIntent(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())
	base := Signals{SalesVelocity: 3, AvgRating60d: 4}

	prev := p.Predict(base)
	for cart := 1; cart <= 20; cart++ {
		s := base
		s.CartCount7d = cart
		got := p.Predict(s)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestMultiplicativePredictor_Multipliers(t *testing.T) {
	p := NewMultiplicativePredictor(DefaultPredictorWeights())

	m := p.Multipliers(Signals{SalesVelocity: 2, CartCount7d: 3, AvgRating60d: 2, ReturnRate: 50})

	assert.InDelta(t, 60, m["base"], 1e-9)
	assert.InDelta(t, 1.3, m["cart"], 1e-9)
	assert.InDelta(t, 1.0, m["wish"], 1e-9)
	assert.InDelta(t, 0.9, m["rating"], 1e-9)
	assert.InDelta(t, 0.9, m["return"], 1e-9)
}
