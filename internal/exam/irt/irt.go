// Package irt implements the three-parameter logistic (3PL) item response
// model used by the adaptive exam engine: response probability, Fisher
// information, and maximum-likelihood ability estimation.
package irt

import "math"

// Difficulty label constants for legacy items without calibrated parameters.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Defaults applied when an item carries only a difficulty label.
const (
	defaultDiscrimination = 1.0
	defaultGuessing       = 0.25 // four-option multiple choice floor
)

// Params holds the 3PL item parameters.
type Params struct {
	A float64 `json:"a"` // discrimination
	B float64 `json:"b"` // difficulty
	C float64 `json:"c"` // pseudo-guessing
}

// ParamsForLabel maps a discrete difficulty label to default 3PL parameters.
// Labels are matched case-insensitively; anything unrecognized is treated as
// medium so legacy rows with blank or garbage difficulty still work.
func ParamsForLabel(label string) Params {
	b := 0.0
	switch normalizeLabel(label) {
	case DifficultyEasy:
		b = -1.0
	case DifficultyHard:
		b = 1.0
	}
	return Params{A: defaultDiscrimination, B: b, C: defaultGuessing}
}

func normalizeLabel(label string) string {
	switch label {
	case "easy", "Easy", "EASY":
		return DifficultyEasy
	case "hard", "Hard", "HARD":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Probability returns P(correct | theta) under the 3PL model:
// c + (1-c) / (1 + exp(-a(theta-b))).
func Probability(theta float64, p Params) float64 {
	exponent := -p.A * (theta - p.B)
	// exp overflows float64 well past +-700; clamp to keep the result finite.
	if exponent > 700 {
		exponent = 700
	} else if exponent < -700 {
		exponent = -700
	}
	return p.C + (1-p.C)/(1+math.Exp(exponent))
}

// Information returns the Fisher information contributed by an item at theta:
// a^2 * (P-c)^2 * (1-P) / ((1-c)^2 * P).
// Information is highest where the item discriminates best, i.e. near b.
func Information(theta float64, p Params) float64 {
	prob := Probability(theta, p)
	if prob <= 0 || prob >= 1 {
		return 0
	}
	num := p.A * p.A * (prob - p.C) * (prob - p.C) * (1 - prob)
	den := (1 - p.C) * (1 - p.C) * prob
	if den == 0 {
		return 0
	}
	return num / den
}
