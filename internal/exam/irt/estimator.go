package irt

import "math"

// Theta scale bounds; conventional IRT range.
const (
	ThetaMin = -3.0
	ThetaMax = 3.0
)

// MaxStandardError is the sentinel reported when no information has been
// accumulated (empty history). It equals the width of half the theta scale,
// i.e. maximal uncertainty.
const MaxStandardError = 3.0

// Observation pairs an item's parameters with the scored outcome.
type Observation struct {
	Params  Params
	Correct bool
}

// EstimatorConfig holds the numeric knobs for MLE.
type EstimatorConfig struct {
	MaxIterations int     // default: 10
	Tolerance     float64 // convergence tolerance on theta, default: 1e-4
	TrustRegion   float64 // max theta movement per step, default: 0.75
}

// DefaultEstimatorConfig returns production defaults.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MaxIterations: 10,
		Tolerance:     1e-4,
		TrustRegion:   0.75,
	}
}

// Estimator computes maximum-likelihood ability estimates over a response
// history using Fisher scoring (Newton-Raphson with expected information).
type Estimator struct {
	config EstimatorConfig
}

// NewEstimator creates an estimator, filling in defaults for zero fields.
func NewEstimator(config EstimatorConfig) *Estimator {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 10
	}
	if config.Tolerance <= 0 {
		config.Tolerance = 1e-4
	}
	if config.TrustRegion <= 0 {
		config.TrustRegion = 0.75
	}
	return &Estimator{config: config}
}

// Result carries the estimate plus a degeneracy flag. Degenerate means the
// information sum vanished at some iteration (typical for all-correct or
// all-incorrect histories) and the trust-region fallback step was used; the
// estimate is still valid and bounded.
type Result struct {
	Theta      float64
	SE         float64
	Degenerate bool
}

// Estimate maximizes the 3PL log-likelihood over the full history, starting
// from start (the previous estimate, or 0 for a fresh session). The whole
// history is re-fit on every call; exam length is small so this is cheap.
//
// An empty history returns theta=start clamped, SE=MaxStandardError.
//
// A perfectly consistent history (all correct or all incorrect) has no
// interior maximum: the MLE sits at the scale edge. Instead of extrapolating
// there, the estimator takes a single Newton step from start bounded by the
// trust region, so each additional consistent response moves theta by at
// most TrustRegion.
func (e *Estimator) Estimate(observations []Observation, start float64) Result {
	theta := clampTheta(start)
	if len(observations) == 0 {
		return Result{Theta: theta, SE: MaxStandardError}
	}

	if homogeneous(observations) {
		theta = clampTheta(theta + e.boundedStep(observations, theta))
		se := MaxStandardError
		if _, info := e.scoreAndInformation(observations, theta); info > 0 {
			se = 1 / math.Sqrt(info)
			if se > MaxStandardError {
				se = MaxStandardError
			}
		}
		return Result{Theta: theta, SE: se, Degenerate: true}
	}

	degenerate := false
	for i := 0; i < e.config.MaxIterations; i++ {
		gradient, info := e.scoreAndInformation(observations, theta)

		var step float64
		if info < 1e-9 {
			// Vanishing information: one bounded step in the gradient
			// direction instead of diverging toward the scale edge.
			degenerate = true
			if gradient > 0 {
				step = e.config.TrustRegion
			} else if gradient < 0 {
				step = -e.config.TrustRegion
			}
		} else {
			step = clampStep(gradient/info, e.config.TrustRegion)
		}

		next := clampTheta(theta + step)
		moved := math.Abs(next - theta)
		theta = next
		if moved < e.config.Tolerance {
			break
		}
	}

	se := MaxStandardError
	if _, info := e.scoreAndInformation(observations, theta); info > 0 {
		se = 1 / math.Sqrt(info)
		if se > MaxStandardError {
			se = MaxStandardError
		}
	}

	return Result{Theta: theta, SE: se, Degenerate: degenerate}
}

// scoreAndInformation returns the log-likelihood gradient and the expected
// (Fisher) information summed over the history at theta.
func (e *Estimator) scoreAndInformation(observations []Observation, theta float64) (float64, float64) {
	var gradient, info float64
	for _, obs := range observations {
		p := obs.Params
		prob := Probability(theta, p)
		if prob <= 0 || prob >= 1 {
			continue
		}
		x := 0.0
		if obs.Correct {
			x = 1.0
		}
		// d/dtheta of the 3PL log-likelihood term.
		gradient += p.A * (x - prob) * (prob - p.C) / (prob * (1 - p.C))
		info += Information(theta, p)
	}
	return gradient, info
}

// boundedStep computes one Newton step at theta, clamped to the trust
// region. Falls back to a full trust-region move in the gradient direction
// when the information vanishes.
func (e *Estimator) boundedStep(observations []Observation, theta float64) float64 {
	gradient, info := e.scoreAndInformation(observations, theta)
	if info < 1e-9 {
		if gradient > 0 {
			return e.config.TrustRegion
		}
		if gradient < 0 {
			return -e.config.TrustRegion
		}
		return 0
	}
	return clampStep(gradient/info, e.config.TrustRegion)
}

func homogeneous(observations []Observation) bool {
	for _, obs := range observations[1:] {
		if obs.Correct != observations[0].Correct {
			return false
		}
	}
	return true
}

func clampStep(step, trustRegion float64) float64 {
	if step > trustRegion {
		return trustRegion
	}
	if step < -trustRegion {
		return -trustRegion
	}
	return step
}

func clampTheta(theta float64) float64 {
	if theta < ThetaMin {
		return ThetaMin
	}
	if theta > ThetaMax {
		return ThetaMax
	}
	return theta
}
