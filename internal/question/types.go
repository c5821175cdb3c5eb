package question

import (
	"github.com/examadapt/adaptive-engine/internal/exam/irt"
)

// OptionCount is fixed: every item is four-option multiple choice.
const OptionCount = 4

// Item is a candidate exam question as supplied by the parameter store.
// The engine never mutates items and treats option text as opaque.
type Item struct {
	ID            string      `json:"id"`
	Topic         string      `json:"topic"`
	Prompt        string      `json:"prompt"`
	Options       []string    `json:"options"`
	CorrectOption string      `json:"correct_option"` // server-side only, "A".."D"
	Difficulty    string      `json:"difficulty"`     // legacy label, used when Calibrated is nil
	Calibrated    *irt.Params `json:"calibrated,omitempty"`
}

// Params returns the item's 3PL parameters: calibrated values when present,
// otherwise defaults derived from the difficulty label.
func (i Item) Params() irt.Params {
	if i.Calibrated != nil {
		return *i.Calibrated
	}
	return irt.ParamsForLabel(i.Difficulty)
}

// PoolRequest filters the candidate pool.
type PoolRequest struct {
	Topic string // empty means all topics
}

// PoolResponse holds candidate items plus cache metadata.
type PoolResponse struct {
	Items     []Item `json:"items"`
	ExpiresAt int64  `json:"expires_at"`
}
