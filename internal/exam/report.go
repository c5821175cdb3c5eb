package exam

import (
	"github.com/examadapt/adaptive-engine/internal/exam/irt"
)

// Performance trend outcomes.
const (
	TrendInsufficientData = "insufficient_data"
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
)

// Study recommendation outcomes.
const (
	RecommendStartMedium  = "start_with_medium_questions"
	RecommendTryHarder    = "try_harder_questions"
	RecommendReviewBasics = "review_basics_first"
	RecommendGoodProgress = "good_progress_continue"
	RecommendAdjustLevel  = "adjust_difficulty_level"
)

// DifficultyBreakdown summarizes responses at one difficulty label.
type DifficultyBreakdown struct {
	Accuracy    float64 `json:"accuracy"`
	Count       int     `json:"count"`
	AvgTimeSecs float64 `json:"avg_time_secs"`
}

// Report summarizes a session for the presentation layer.
type Report struct {
	SessionID          string                         `json:"session_id"`
	TotalQuestions     int                            `json:"total_questions"`
	CorrectAnswers     int                            `json:"correct_answers"`
	Accuracy           float64                        `json:"accuracy"`
	FinalAbility       float64                        `json:"final_ability"`
	StandardError      float64                        `json:"standard_error"`
	TotalTimeSecs      int                            `json:"total_time_secs"`
	Trend              string                         `json:"performance_trend"`
	Recommendation     string                         `json:"recommendation"`
	ByDifficulty       map[string]DifficultyBreakdown `json:"difficulty_breakdown"`
	AbilityProgression []float64                      `json:"ability_progression"`
	Complete           bool                           `json:"complete"`
}

// BuildReport derives the session report from the response history. The
// ability progression is the recorded estimate after each response, so the
// report needs no re-estimation and is a pure function of the session.
func BuildReport(sess *Session) Report {
	report := Report{
		SessionID:      sess.ID.String(),
		TotalQuestions: len(sess.Responses),
		CorrectAnswers: sess.CorrectCount(),
		FinalAbility:   sess.Ability,
		StandardError:  sess.SE,
		TotalTimeSecs:  sess.TotalTimeSecs(),
		Trend:          performanceTrend(sess.Responses),
		Recommendation: recommendation(sess.Ability, sess.Responses),
		ByDifficulty:   map[string]DifficultyBreakdown{},
		Complete:       sess.Status == StatusComplete,
	}
	if report.TotalQuestions > 0 {
		report.Accuracy = float64(report.CorrectAnswers) / float64(report.TotalQuestions)
	}

	type acc struct {
		correct int
		count   int
		time    int
	}
	byLabel := map[string]*acc{}
	for _, r := range sess.Responses {
		label := r.Difficulty
		if label == "" {
			label = irt.DifficultyMedium
		}
		slot := byLabel[label]
		if slot == nil {
			slot = &acc{}
			byLabel[label] = slot
		}
		slot.count++
		slot.time += r.TimeTakenSecs
		if r.IsCorrect {
			slot.correct++
		}
	}
	for label, slot := range byLabel {
		report.ByDifficulty[label] = DifficultyBreakdown{
			Accuracy:    float64(slot.correct) / float64(slot.count),
			Count:       slot.count,
			AvgTimeSecs: float64(slot.time) / float64(slot.count),
		}
	}

	// AbilityAtTime of response i is the estimate before it; the estimate
	// after response i is therefore the next response's AbilityAtTime, and
	// the session's current ability closes the sequence.
	progression := make([]float64, 0, len(sess.Responses))
	for i := 1; i < len(sess.Responses); i++ {
		progression = append(progression, sess.Responses[i].AbilityAtTime)
	}
	if len(sess.Responses) > 0 {
		progression = append(progression, sess.Ability)
	}
	report.AbilityProgression = progression

	return report
}

// performanceTrend compares accuracy over the last three responses against
// the earlier portion of the history.
func performanceTrend(responses []Response) string {
	if len(responses) <= 3 {
		return TrendInsufficientData
	}
	recent := responses[len(responses)-3:]
	earlier := responses[:len(responses)-3]

	recentAcc := accuracyOf(recent)
	earlierAcc := accuracyOf(earlier)

	switch {
	case recentAcc > earlierAcc+0.1:
		return TrendImproving
	case recentAcc < earlierAcc-0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func recommendation(ability float64, responses []Response) string {
	if len(responses) == 0 {
		return RecommendStartMedium
	}
	accuracy := accuracyOf(responses)
	switch {
	case accuracy > 0.8 && ability > 1.0:
		return RecommendTryHarder
	case accuracy < 0.4 && ability < -1.0:
		return RecommendReviewBasics
	case accuracy > 0.6 && accuracy < 0.8:
		return RecommendGoodProgress
	default:
		return RecommendAdjustLevel
	}
}

func accuracyOf(responses []Response) float64 {
	if len(responses) == 0 {
		return 0
	}
	correct := 0
	for _, r := range responses {
		if r.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(responses))
}
