package exam

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
	"github.com/examadapt/adaptive-engine/internal/exam/selector"
	"github.com/examadapt/adaptive-engine/internal/question"
)

// Config groups the session termination knobs.
type Config struct {
	MaxQuestions        int     // hard length limit, default: 10
	MinQuestions        int     // floor before early termination applies, default: 5
	SEThreshold         float64 // precision target for early termination, default: 0.3
	UseEarlyTermination bool    // default: false (fixed-length exams)
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxQuestions: 10,
		MinQuestions: 5,
		SEThreshold:  0.3,
	}
}

// Completion reasons carried on NextResult.
const (
	ReasonMaxQuestions     = "max_questions"
	ReasonPrecisionReached = "precision_reached"
	ReasonPoolExhausted    = "pool_exhausted"
)

// NextResult is the tagged outcome of NextQuestion: either an item to present
// or a completion signal with the reason the session ended.
type NextResult struct {
	Item     question.Item
	Complete bool
	Reason   string // set only when Complete
	Relaxed  bool   // selector had to drop topic constraints
}

// Controller is the session state machine. It is stateless: every operation
// is a synchronous transform of an explicit Session value, so sessions can be
// processed by any process holding the persisted record.
type Controller struct {
	config    Config
	estimator *irt.Estimator
	selector  *selector.Selector
	logger    zerolog.Logger
}

// NewController creates the controller, filling zero config fields with
// defaults.
func NewController(config Config, selectorConfig selector.Config, logger zerolog.Logger) *Controller {
	if config.MaxQuestions <= 0 {
		config.MaxQuestions = 10
	}
	if config.MinQuestions <= 0 {
		config.MinQuestions = 5
	}
	if config.SEThreshold <= 0 {
		config.SEThreshold = 0.3
	}
	return &Controller{
		config:    config,
		estimator: irt.NewEstimator(irt.DefaultEstimatorConfig()),
		selector:  selector.New(selectorConfig),
		logger:    logger.With().Str("component", "exam_controller").Logger(),
	}
}

// StartSession creates a fresh active session at average ability.
func (c *Controller) StartSession(studentID uuid.UUID) (Session, error) {
	if studentID == uuid.Nil {
		return Session{}, ErrInvalidStudent
	}
	return Session{
		ID:          uuid.New(),
		StudentID:   studentID,
		Ability:     0,
		SE:          irt.MaxStandardError,
		Status:      StatusActive,
		TopicCounts: map[string]int{},
		StartedAt:   time.Now().UTC(),
	}, nil
}

// NextQuestion either issues the best next item from the candidate pool or
// completes the session. Pool exhaustion is a completion reason, not an
// error. Calling again while a question is already pending reissues the same
// item, so a client retry cannot skip questions or inflate exposure counts.
func (c *Controller) NextQuestion(sess *Session, pool []question.Item) (NextResult, error) {
	if sess.Status == StatusComplete {
		return NextResult{Complete: true}, nil
	}
	if reason, done := c.shouldTerminate(sess); done {
		c.complete(sess, reason)
		return NextResult{Complete: true, Reason: reason}, nil
	}

	if sess.PendingQuestionID != "" {
		for _, item := range pool {
			if item.ID == sess.PendingQuestionID {
				return NextResult{Item: item}, nil
			}
		}
		// Pending item vanished from the pool; abandon it and select fresh.
		sess.PendingQuestionID = ""
	}

	choice, err := c.selector.Select(sess.Ability, pool, sess.AnsweredIDs(), sess.TopicCounts)
	if err != nil {
		// Selector starvation at the weakest constraint level: graceful early
		// termination, reported via the completion reason.
		c.logger.Info().
			Str("session_id", sess.ID.String()).
			Int("answered", len(sess.Responses)).
			Msg("candidate pool exhausted, completing session early")
		c.complete(sess, ReasonPoolExhausted)
		return NextResult{Complete: true, Reason: ReasonPoolExhausted}, nil
	}

	sess.PendingQuestionID = choice.Item.ID
	if sess.TopicCounts == nil {
		sess.TopicCounts = map[string]int{}
	}
	sess.TopicCounts[choice.Item.Topic]++

	return NextResult{Item: choice.Item, Relaxed: choice.Relaxed}, nil
}

// SubmitResponse scores an answer to the currently pending question, appends
// the response, and re-estimates ability over the full history. The session
// is left unmodified when the submission is rejected.
func (c *Controller) SubmitResponse(sess *Session, item question.Item, selectedOption string, timeTakenSecs int) (AnalysisResult, error) {
	if sess.Status == StatusComplete {
		return AnalysisResult{}, ErrSessionClosed
	}
	if sess.PendingQuestionID == "" || item.ID != sess.PendingQuestionID {
		return AnalysisResult{}, ErrUnknownQuestion
	}

	isCorrect := strings.EqualFold(strings.TrimSpace(selectedOption), item.CorrectOption)
	abilityBefore := sess.Ability

	sess.Responses = append(sess.Responses, Response{
		QuestionID:     item.ID,
		Topic:          item.Topic,
		Difficulty:     item.Difficulty,
		Params:         item.Params(),
		SelectedOption: strings.ToUpper(strings.TrimSpace(selectedOption)),
		IsCorrect:      isCorrect,
		TimeTakenSecs:  timeTakenSecs,
		AbilityAtTime:  abilityBefore,
		AnsweredAt:     time.Now().UTC(),
	})
	sess.PendingQuestionID = ""

	result := c.estimator.Estimate(c.observations(sess), abilityBefore)
	sess.Ability = result.Theta
	sess.SE = result.SE
	if result.Degenerate {
		c.logger.Debug().
			Str("session_id", sess.ID.String()).
			Float64("ability", result.Theta).
			Msg("estimator degeneracy, trust-region fallback applied")
	}

	analysis := AnalysisResult{
		IsCorrect:     isCorrect,
		CorrectOption: item.CorrectOption,
		AbilityBefore: abilityBefore,
		AbilityAfter:  sess.Ability,
		AbilityDelta:  sess.Ability - abilityBefore,
		SE:            sess.SE,
		Degenerate:    result.Degenerate,
	}

	if reason, done := c.shouldTerminate(sess); done {
		c.complete(sess, reason)
		analysis.Complete = true
	}

	return analysis, nil
}

func (c *Controller) shouldTerminate(sess *Session) (string, bool) {
	if len(sess.Responses) >= c.config.MaxQuestions {
		return ReasonMaxQuestions, true
	}
	if c.config.UseEarlyTermination &&
		len(sess.Responses) >= c.config.MinQuestions &&
		sess.SE < c.config.SEThreshold {
		return ReasonPrecisionReached, true
	}
	return "", false
}

func (c *Controller) complete(sess *Session, reason string) {
	now := time.Now().UTC()
	sess.Status = StatusComplete
	sess.CompletedAt = &now
	sess.PendingQuestionID = ""
	c.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("reason", reason).
		Int("questions", len(sess.Responses)).
		Float64("ability", sess.Ability).
		Float64("se", sess.SE).
		Msg("session complete")
}

func (c *Controller) observations(sess *Session) []irt.Observation {
	obs := make([]irt.Observation, 0, len(sess.Responses))
	for _, r := range sess.Responses {
		obs = append(obs, irt.Observation{Params: r.Params, Correct: r.IsCorrect})
	}
	return obs
}
