package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examadapt/adaptive-engine/internal/db/repository"
	"github.com/examadapt/adaptive-engine/internal/metrics"
	"github.com/examadapt/adaptive-engine/internal/question"
)

// SessionStore is the session persistence collaborator. Load/Save must be
// effectively atomic per session id; Lock serializes concurrent operations
// on one session (different sessions are fully independent).
type SessionStore interface {
	Load(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Lock(ctx context.Context, id uuid.UUID) (func() error, error)
}

// ItemSource is the item parameter store collaborator.
type ItemSource interface {
	Candidates(ctx context.Context, req question.PoolRequest) ([]question.Item, error)
	Get(ctx context.Context, id string) (question.Item, error)
}

// StudentDirectory resolves student identities. Resolve returns
// ErrInvalidStudent when the id is unknown.
type StudentDirectory interface {
	Resolve(ctx context.Context, studentID uuid.UUID) error
}

// ResultArchive persists completed-session summaries and serves a student's
// exam history.
type ResultArchive interface {
	Insert(ctx context.Context, result repository.ExamResult) error
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]repository.ExamResult, error)
}

// ResponseLog records scored responses durably and feeds question
// calibration. Failures here are logged, never surfaced: the exam must not
// fail because bookkeeping did.
type ResponseLog interface {
	RecordResponse(ctx context.Context, sessionID, questionID string, isCorrect bool, timeTakenSecs int) error
	ResponseStats(ctx context.Context, questionID string) (total, correct int, err error)
	Upsert(ctx context.Context, questionID string, observedDifficulty, discrimination float64, sampleSize int) error
}

// Questions need this many recorded responses before calibration updates.
const calibrationMinSample = 5

// Service exposes the engine's three operations over persisted sessions.
// All state lives in the SessionStore; the service itself is stateless and
// safe to run in any number of replicas.
type Service struct {
	controller *Controller
	store      SessionStore
	items      ItemSource
	students   StudentDirectory
	results    ResultArchive
	responses  ResponseLog
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(
	controller *Controller,
	store SessionStore,
	items ItemSource,
	students StudentDirectory,
	results ResultArchive,
	responses ResponseLog,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		controller: controller,
		store:      store,
		items:      items,
		students:   students,
		results:    results,
		responses:  responses,
		metrics:    m,
		logger:     logger.With().Str("component", "exam_service").Logger(),
	}
}

// Start creates and persists a fresh session for the student.
func (s *Service) Start(ctx context.Context, studentID uuid.UUID) (Session, error) {
	if s.students != nil {
		if err := s.students.Resolve(ctx, studentID); err != nil {
			return Session{}, err
		}
	}

	sess, err := s.controller.StartSession(studentID)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.Save(ctx, &sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("student_id", studentID.String()).
		Msg("session started")
	return sess, nil
}

// Next issues the next question for the session, or a completion signal.
// The optional topic narrows the candidate pool. studentID must match the
// session owner; a mismatch is indistinguishable from an unknown session.
func (s *Service) Next(ctx context.Context, sessionID, studentID uuid.UUID, topic string) (NextResult, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return NextResult{}, fmt.Errorf("lock session: %w", err)
	}
	defer s.unlockQuietly(unlock, sessionID)

	sess, err := s.loadOwned(ctx, sessionID, studentID)
	if err != nil {
		return NextResult{}, err
	}

	pool, err := s.items.Candidates(ctx, question.PoolRequest{Topic: topic})
	if err != nil {
		return NextResult{}, err
	}

	result, err := s.controller.NextQuestion(sess, pool)
	if err != nil {
		return NextResult{}, err
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return NextResult{}, fmt.Errorf("save session: %w", err)
	}

	if s.metrics != nil {
		if result.Relaxed {
			s.metrics.SelectorRelaxations.Inc()
		}
		if result.Complete && result.Reason != "" {
			s.metrics.SessionsCompleted.WithLabelValues(result.Reason).Inc()
		}
	}
	if result.Complete {
		s.archiveIfComplete(ctx, sess)
	}
	return result, nil
}

// Submit scores an answer against the pending question, updates the ability
// estimate, and persists the session. The response list is untouched when
// the submission is rejected.
func (s *Service) Submit(ctx context.Context, sessionID, studentID uuid.UUID, questionID, selectedOption string, timeTakenSecs int) (AnalysisResult, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("lock session: %w", err)
	}
	defer s.unlockQuietly(unlock, sessionID)

	sess, err := s.loadOwned(ctx, sessionID, studentID)
	if err != nil {
		return AnalysisResult{}, err
	}

	if sess.Status == StatusComplete {
		return AnalysisResult{}, ErrSessionClosed
	}
	if questionID != sess.PendingQuestionID {
		return AnalysisResult{}, ErrUnknownQuestion
	}

	item, err := s.items.Get(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return AnalysisResult{}, ErrUnknownQuestion
		}
		return AnalysisResult{}, err
	}

	analysis, err := s.controller.SubmitResponse(sess, item, selectedOption, timeTakenSecs)
	if err != nil {
		return AnalysisResult{}, err
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return AnalysisResult{}, fmt.Errorf("save session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ResponsesScored.WithLabelValues(fmt.Sprint(analysis.IsCorrect)).Inc()
		if analysis.Degenerate {
			s.metrics.EstimatorFallbacks.Inc()
		}
		if analysis.Complete {
			s.metrics.SessionsCompleted.WithLabelValues(ReasonMaxQuestions).Inc()
		}
	}

	s.recordAndCalibrate(ctx, sess, item, analysis)
	if analysis.Complete {
		s.archiveIfComplete(ctx, sess)
	}

	return analysis, nil
}

// Report builds the session summary.
func (s *Service) Report(ctx context.Context, sessionID, studentID uuid.UUID) (Report, error) {
	sess, err := s.loadOwned(ctx, sessionID, studentID)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(sess), nil
}

// History returns the student's archived results, newest first.
func (s *Service) History(ctx context.Context, studentID uuid.UUID, limit int) ([]repository.ExamResult, error) {
	if s.results == nil {
		return nil, nil
	}
	return s.results.ListByStudent(ctx, studentID, limit)
}

// loadOwned loads a session and checks ownership. Sessions belonging to a
// different student read as not found so ids cannot be probed.
func (s *Service) loadOwned(ctx context.Context, sessionID, studentID uuid.UUID) (*Session, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if studentID != uuid.Nil && sess.StudentID != studentID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// recordAndCalibrate appends the response to the durable log and refreshes
// the question's observed-difficulty calibration once enough responses exist.
// Best-effort: calibration is offline bookkeeping.
func (s *Service) recordAndCalibrate(ctx context.Context, sess *Session, item question.Item, analysis AnalysisResult) {
	if s.responses == nil {
		return
	}
	last := sess.Responses[len(sess.Responses)-1]
	if err := s.responses.RecordResponse(ctx, sess.ID.String(), item.ID, analysis.IsCorrect, last.TimeTakenSecs); err != nil {
		s.logger.Warn().Err(err).Str("question_id", item.ID).Msg("record response failed")
		return
	}

	total, correct, err := s.responses.ResponseStats(ctx, item.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("question_id", item.ID).Msg("response stats failed")
		return
	}
	if total < calibrationMinSample {
		return
	}

	observed := 1 - float64(correct)/float64(total)
	if err := s.responses.Upsert(ctx, item.ID, observed, item.Params().A, total); err != nil {
		s.logger.Warn().Err(err).Str("question_id", item.ID).Msg("calibration upsert failed")
	}
}

// archiveIfComplete writes the durable result row for a completed session.
// Best-effort: the session record itself already carries the outcome.
func (s *Service) archiveIfComplete(ctx context.Context, sess *Session) {
	if s.results == nil || sess.Status != StatusComplete {
		return
	}
	total := len(sess.Responses)
	percentage := 0.0
	if total > 0 {
		percentage = 100 * float64(sess.CorrectCount()) / float64(total)
	}
	completedAt := sess.StartedAt
	if sess.CompletedAt != nil {
		completedAt = *sess.CompletedAt
	}
	result := repository.ExamResult{
		SessionID:     sess.ID,
		StudentID:     sess.StudentID,
		Score:         sess.CorrectCount(),
		Total:         total,
		Percentage:    percentage,
		TimeTakenSecs: sess.TotalTimeSecs(),
		FinalAbility:  sess.Ability,
		StandardError: sess.SE,
		CompletedAt:   completedAt,
	}
	if err := s.results.Insert(ctx, result); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("archive result failed")
	}
}

func (s *Service) unlockQuietly(unlock func() error, sessionID uuid.UUID) {
	if err := unlock(); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("unlock failed")
	}
}
