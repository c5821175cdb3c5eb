package exam

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
	"github.com/examadapt/adaptive-engine/internal/exam/selector"
	"github.com/examadapt/adaptive-engine/internal/question"
)

func newTestController(config Config) *Controller {
	return NewController(config, selector.DefaultConfig(), zerolog.Nop())
}

func poolItem(id, topic, difficulty string) question.Item {
	return question.Item{
		ID:            id,
		Topic:         topic,
		Prompt:        "prompt " + id,
		Options:       []string{"opt a", "opt b", "opt c", "opt d"},
		CorrectOption: "A",
		Difficulty:    difficulty,
	}
}

func standardPool() []question.Item {
	return []question.Item{
		poolItem("q-easy", "algebra", "Easy"),
		poolItem("q-medium", "geometry", "Medium"),
		poolItem("q-hard", "algebra", "Hard"),
	}
}

func TestStartSession(t *testing.T) {
	ctrl := newTestController(DefaultConfig())

	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	assert.Equal(t, StatusActive, sess.Status)
	assert.Equal(t, 0.0, sess.Ability)
	assert.Equal(t, irt.MaxStandardError, sess.SE)
	assert.Empty(t, sess.Responses)
	assert.Empty(t, sess.PendingQuestionID)
	assert.NotEqual(t, uuid.Nil, sess.ID)
}

func TestStartSessionRejectsNilStudent(t *testing.T) {
	ctrl := newTestController(DefaultConfig())

	_, err := ctrl.StartSession(uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidStudent)
}

func TestNextQuestionFirstItemMatchesAverageAbility(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	// Fresh session sits at theta 0, where the medium item carries the most
	// information.
	next, err := ctrl.NextQuestion(&sess, standardPool())
	require.NoError(t, err)

	require.False(t, next.Complete)
	assert.Equal(t, "q-medium", next.Item.ID)
	assert.Equal(t, "q-medium", sess.PendingQuestionID)
	assert.Equal(t, 1, sess.TopicCounts["geometry"])
}

func TestNextQuestionReissuesPendingItem(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	first, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)

	// A client retry before answering must see the same item again without
	// inflating exposure counts.
	retry, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)

	assert.Equal(t, first.Item.ID, retry.Item.ID)
	assert.Equal(t, 1, sess.TopicCounts[first.Item.Topic])
}

func TestCorrectAnswerRaisesAbilityAndDifficulty(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	next, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	require.Equal(t, "q-medium", next.Item.ID)

	analysis, err := ctrl.SubmitResponse(&sess, next.Item, "A", 30)
	require.NoError(t, err)

	assert.True(t, analysis.IsCorrect)
	assert.Greater(t, sess.Ability, 0.0)
	assert.Greater(t, analysis.AbilityDelta, 0.0)

	next, err = ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	assert.Equal(t, "q-hard", next.Item.ID)
}

func TestIncorrectAnswerLowersAbilityAndDifficulty(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	next, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	require.Equal(t, "q-medium", next.Item.ID)

	analysis, err := ctrl.SubmitResponse(&sess, next.Item, "C", 30)
	require.NoError(t, err)

	assert.False(t, analysis.IsCorrect)
	assert.Less(t, sess.Ability, 0.0)

	next, err = ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	assert.Equal(t, "q-easy", next.Item.ID)
}

func TestSubmitResponseScoresCaseInsensitively(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	next, err := ctrl.NextQuestion(&sess, standardPool())
	require.NoError(t, err)

	analysis, err := ctrl.SubmitResponse(&sess, next.Item, " a ", 12)
	require.NoError(t, err)

	assert.True(t, analysis.IsCorrect)
	assert.Equal(t, "A", sess.Responses[0].SelectedOption)
}

func TestSubmitResponseRejectsUnexpectedQuestion(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	_, err = ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)

	abilityBefore := sess.Ability
	_, err = ctrl.SubmitResponse(&sess, poolItem("q-rogue", "algebra", "Medium"), "A", 5)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	// Rejected submissions must not touch session state.
	assert.Empty(t, sess.Responses)
	assert.Equal(t, abilityBefore, sess.Ability)
	assert.Equal(t, "q-medium", sess.PendingQuestionID)
}

func TestSubmitResponseRejectsClosedSession(t *testing.T) {
	ctrl := newTestController(Config{MaxQuestions: 1})
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	next, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)

	analysis, err := ctrl.SubmitResponse(&sess, next.Item, "A", 10)
	require.NoError(t, err)
	require.True(t, analysis.Complete)
	require.Equal(t, StatusComplete, sess.Status)

	_, err = ctrl.SubmitResponse(&sess, next.Item, "A", 10)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionCompletesAtMaxQuestions(t *testing.T) {
	ctrl := newTestController(Config{MaxQuestions: 3})
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := []question.Item{
		poolItem("q1", "algebra", "Medium"),
		poolItem("q2", "algebra", "Medium"),
		poolItem("q3", "geometry", "Hard"),
		poolItem("q4", "geometry", "Easy"),
	}

	for i := 0; i < 3; i++ {
		next, err := ctrl.NextQuestion(&sess, pool)
		require.NoError(t, err)
		require.False(t, next.Complete)

		_, err = ctrl.SubmitResponse(&sess, next.Item, "A", 10)
		require.NoError(t, err)
	}

	assert.Equal(t, StatusComplete, sess.Status)
	require.NotNil(t, sess.CompletedAt)
	assert.Empty(t, sess.PendingQuestionID)
	assert.Len(t, sess.Responses, 3)

	// Terminal state is absorbing.
	next, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	assert.True(t, next.Complete)
}

func TestPoolExhaustionCompletesGracefully(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := []question.Item{
		poolItem("q1", "algebra", "Medium"),
		poolItem("q2", "algebra", "Easy"),
	}

	for i := 0; i < 2; i++ {
		next, err := ctrl.NextQuestion(&sess, pool)
		require.NoError(t, err)
		require.False(t, next.Complete)
		_, err = ctrl.SubmitResponse(&sess, next.Item, "A", 10)
		require.NoError(t, err)
	}

	next, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)

	assert.True(t, next.Complete)
	assert.Equal(t, ReasonPoolExhausted, next.Reason)
	assert.Equal(t, StatusComplete, sess.Status)
	assert.Len(t, sess.Responses, 2)
}

func TestSessionNeverRepeatsQuestions(t *testing.T) {
	ctrl := newTestController(Config{MaxQuestions: 5})
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := []question.Item{
		poolItem("q1", "algebra", "Easy"),
		poolItem("q2", "algebra", "Medium"),
		poolItem("q3", "geometry", "Medium"),
		poolItem("q4", "geometry", "Hard"),
		poolItem("q5", "calculus", "Hard"),
	}

	seen := map[string]bool{}
	answers := []string{"A", "B", "A", "C", "A"}
	for i := 0; i < 5; i++ {
		next, err := ctrl.NextQuestion(&sess, pool)
		require.NoError(t, err)
		require.False(t, next.Complete)

		assert.False(t, seen[next.Item.ID], "item %s issued twice", next.Item.ID)
		seen[next.Item.ID] = true

		_, err = ctrl.SubmitResponse(&sess, next.Item, answers[i], 10)
		require.NoError(t, err)
	}

	assert.Len(t, seen, 5)
	assert.Equal(t, StatusComplete, sess.Status)
}

func TestEarlyTerminationOnPrecision(t *testing.T) {
	ctrl := newTestController(Config{
		MaxQuestions:        10,
		MinQuestions:        1,
		SEThreshold:         2.8,
		UseEarlyTermination: true,
	})
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	next, err := ctrl.NextQuestion(&sess, standardPool())
	require.NoError(t, err)

	// One scored response pulls the standard error below the (loose)
	// threshold, so the session ends well short of the length limit.
	analysis, err := ctrl.SubmitResponse(&sess, next.Item, "A", 10)
	require.NoError(t, err)

	assert.True(t, analysis.Complete)
	assert.Equal(t, StatusComplete, sess.Status)
	assert.Less(t, sess.SE, 2.8)
	assert.Len(t, sess.Responses, 1)
}

func TestNextQuestionAbandonsVanishedPendingItem(t *testing.T) {
	ctrl := newTestController(DefaultConfig())
	sess, err := ctrl.StartSession(uuid.New())
	require.NoError(t, err)

	pool := standardPool()
	first, err := ctrl.NextQuestion(&sess, pool)
	require.NoError(t, err)
	require.Equal(t, "q-medium", first.Item.ID)

	// The pending item disappears from the pool (retired between calls); the
	// controller should select fresh instead of stalling.
	shrunk := []question.Item{
		poolItem("q-easy", "algebra", "Easy"),
		poolItem("q-hard", "algebra", "Hard"),
	}
	next, err := ctrl.NextQuestion(&sess, shrunk)
	require.NoError(t, err)

	require.False(t, next.Complete)
	assert.NotEqual(t, "q-medium", next.Item.ID)
	assert.Equal(t, next.Item.ID, sess.PendingQuestionID)
}
