package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
)

// Session lifecycle states.
const (
	StatusActive   = "active"
	StatusComplete = "complete"
)

// Response is one scored answer. Append-only: created exactly once per
// answered item and never mutated. AbilityAtTime is the estimate immediately
// before this response was scored, kept for auditability.
type Response struct {
	QuestionID     string     `json:"question_id"`
	Topic          string     `json:"topic"`
	Difficulty     string     `json:"difficulty"`
	Params         irt.Params `json:"params"` // parameters in effect when scored
	SelectedOption string     `json:"selected_option"`
	IsCorrect      bool       `json:"is_correct"`
	TimeTakenSecs  int        `json:"time_taken_secs"`
	AbilityAtTime  float64    `json:"ability_at_time"`
	AnsweredAt     time.Time  `json:"answered_at"`
}

// Session is the one mutable record in the engine. It is an explicit value:
// the controller transforms it, the session store persists it, and nothing
// holds it in memory between round trips.
type Session struct {
	ID          uuid.UUID      `json:"id"`
	StudentID   uuid.UUID      `json:"student_id"`
	Responses   []Response     `json:"responses"`
	Ability     float64        `json:"ability"`        // theta, bounded to [-3, 3]
	SE          float64        `json:"standard_error"` // recomputed after every response
	Status      string         `json:"status"`
	TopicCounts map[string]int `json:"topic_counts"`
	// PendingQuestionID is the id issued by the last NextQuestion call and not
	// yet answered. Submissions for any other id are rejected.
	PendingQuestionID string     `json:"pending_question_id,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// AnsweredIDs returns the set of question ids already seen in this session.
func (s *Session) AnsweredIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Responses)+1)
	for _, r := range s.Responses {
		ids[r.QuestionID] = true
	}
	// The pending question counts as exposed even before it is answered.
	if s.PendingQuestionID != "" {
		ids[s.PendingQuestionID] = true
	}
	return ids
}

// CorrectCount returns how many responses were correct.
func (s *Session) CorrectCount() int {
	n := 0
	for _, r := range s.Responses {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// TotalTimeSecs sums recorded answer times.
func (s *Session) TotalTimeSecs() int {
	total := 0
	for _, r := range s.Responses {
		total += r.TimeTakenSecs
	}
	return total
}

// AnalysisResult is returned after each scored submission.
type AnalysisResult struct {
	IsCorrect     bool    `json:"is_correct"`
	CorrectOption string  `json:"correct_option"`
	AbilityBefore float64 `json:"ability_before"`
	AbilityAfter  float64 `json:"ability_after"`
	AbilityDelta  float64 `json:"ability_delta"`
	SE            float64 `json:"standard_error"`
	Complete      bool    `json:"complete"`
	// Degenerate notes that the estimator fell back to the trust-region step.
	// Internal bookkeeping for metrics, never part of the caller payload.
	Degenerate bool `json:"-"`
}
