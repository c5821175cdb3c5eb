package irt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func obs(b float64, correct bool) Observation {
	return Observation{Params: Params{A: 1.0, B: b, C: 0.25}, Correct: correct}
}

func TestEstimateEmptyHistory(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	result := est.Estimate(nil, 0)
	assert.Equal(t, 0.0, result.Theta)
	assert.Equal(t, MaxStandardError, result.SE)
	assert.False(t, result.Degenerate)
}

func TestEstimateIdempotent(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())
	history := []Observation{
		obs(-1, true),
		obs(0, true),
		obs(1, false),
		obs(0, false),
	}

	first := est.Estimate(history, 0)
	second := est.Estimate(history, 0)
	assert.Equal(t, first, second)
}

func TestEstimateStaysBounded(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	histories := [][]Observation{
		{obs(0, true)},
		{obs(-1, true), obs(0, true), obs(1, true), obs(1, true), obs(1, true)},
		{obs(1, false), obs(0, false), obs(-1, false), obs(-1, false)},
		{obs(0, true), obs(0, false), obs(0, true), obs(0, false)},
	}

	for _, history := range histories {
		result := est.Estimate(history, 0)
		assert.GreaterOrEqual(t, result.Theta, ThetaMin)
		assert.LessOrEqual(t, result.Theta, ThetaMax)
		assert.GreaterOrEqual(t, result.SE, 0.0)
	}
}

func TestEstimateAllCorrectUsesTrustRegion(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	// A perfectly consistent history has no interior maximum; the estimator
	// must take one bounded step rather than extrapolating to the edge.
	history := []Observation{obs(-1, true), obs(0, true), obs(1, true)}
	result := est.Estimate(history, 0)

	assert.True(t, result.Degenerate)
	assert.Greater(t, result.Theta, 0.0)
	assert.LessOrEqual(t, result.Theta, 0.75)
}

func TestEstimateAllIncorrectUsesTrustRegion(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	history := []Observation{obs(-1, false), obs(0, false), obs(1, false)}
	result := est.Estimate(history, 0)

	assert.True(t, result.Degenerate)
	assert.Less(t, result.Theta, 0.0)
	assert.GreaterOrEqual(t, result.Theta, -0.75)
}

func TestEstimateConsistentHistoryMovesPerResponse(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	// Each additional correct answer moves theta by at most the trust
	// region from the previous estimate.
	theta := 0.0
	for i := 0; i < 6; i++ {
		history := make([]Observation, i+1)
		for j := range history {
			history[j] = obs(0, true)
		}
		result := est.Estimate(history, theta)
		assert.LessOrEqual(t, result.Theta, theta+0.75+1e-9)
		assert.GreaterOrEqual(t, result.Theta, theta)
		theta = result.Theta
	}
	assert.LessOrEqual(t, theta, ThetaMax)
}

func TestEstimateMonotonicResponse(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())
	base := []Observation{
		obs(-1, true),
		obs(0, false),
		obs(0, true),
		obs(1, false),
	}
	baseline := est.Estimate(base, 0)

	// One more correct answer above the current estimate cannot lower theta.
	harder := append(append([]Observation{}, base...), obs(baseline.Theta+0.5, true))
	up := est.Estimate(harder, baseline.Theta)
	assert.GreaterOrEqual(t, up.Theta, baseline.Theta)

	// One more incorrect answer cannot raise it.
	missed := append(append([]Observation{}, base...), obs(baseline.Theta+0.5, false))
	down := est.Estimate(missed, baseline.Theta)
	assert.LessOrEqual(t, down.Theta, baseline.Theta)
}

func TestEstimateSEShrinksWithHistory(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())

	short := []Observation{obs(0, true), obs(0, false)}
	long := append(append([]Observation{}, short...),
		obs(0, true), obs(-1, true), obs(1, false), obs(0, false),
		obs(0, true), obs(-1, true),
	)

	shortResult := est.Estimate(short, 0)
	longResult := est.Estimate(long, shortResult.Theta)
	assert.Less(t, longResult.SE, shortResult.SE)
}

func TestEstimateMixedHistoryNotDegenerate(t *testing.T) {
	est := NewEstimator(DefaultEstimatorConfig())
	history := []Observation{obs(0, true), obs(0, false), obs(-1, true), obs(1, false)}

	result := est.Estimate(history, 0)
	assert.False(t, result.Degenerate)
	assert.Less(t, result.SE, MaxStandardError)
}
