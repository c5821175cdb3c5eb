package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
	"github.com/examadapt/adaptive-engine/internal/question"
)

func item(id, topic string, b float64) question.Item {
	return question.Item{
		ID:         id,
		Topic:      topic,
		Calibrated: &irt.Params{A: 1.0, B: b, C: 0.25},
	}
}

func TestSelectPicksMaxInformation(t *testing.T) {
	sel := New(DefaultConfig())
	pool := []question.Item{
		item("q1", "math", -1),
		item("q2", "math", 0),
		item("q3", "math", 1),
	}

	choice, err := sel.Select(0, pool, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "q2", choice.Item.ID, "on-target item wins at theta=0")
	assert.False(t, choice.Relaxed)
}

func TestSelectTracksAbility(t *testing.T) {
	sel := New(DefaultConfig())
	pool := []question.Item{
		item("q1", "math", -1),
		item("q2", "math", 0),
		item("q3", "math", 1),
	}

	low, err := sel.Select(-1.2, pool, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "q1", low.Item.ID)

	high, err := sel.Select(1.2, pool, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "q3", high.Item.ID)
}

func TestSelectExcludesAnswered(t *testing.T) {
	sel := New(DefaultConfig())
	pool := []question.Item{
		item("q1", "math", 0),
		item("q2", "math", 0.1),
	}

	choice, err := sel.Select(0, pool, map[string]bool{"q1": true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "q2", choice.Item.ID)
}

func TestSelectTopicDiversityTieBreak(t *testing.T) {
	sel := New(DefaultConfig())
	// Identical parameters, distinct topics; verbal has been shown less.
	pool := []question.Item{
		item("q1", "math", 0),
		item("q2", "verbal", 0),
	}
	topicCounts := map[string]int{"math": 3, "verbal": 1}

	choice, err := sel.Select(0, pool, nil, topicCounts)
	require.NoError(t, err)
	assert.Equal(t, "q2", choice.Item.ID)
}

func TestSelectDeterministicIDTieBreak(t *testing.T) {
	sel := New(DefaultConfig())
	pool := []question.Item{
		item("q9", "math", 0),
		item("q2", "math", 0),
		item("q5", "math", 0),
	}

	for i := 0; i < 5; i++ {
		choice, err := sel.Select(0, pool, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "q2", choice.Item.ID)
	}
}

func TestSelectRelaxesTopicCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPerTopic = 2
	sel := New(cfg)

	pool := []question.Item{
		item("q1", "math", 0),
		item("q2", "math", 0.2),
	}
	// Math already at its cap: the cap must be relaxed rather than starving.
	choice, err := sel.Select(0, pool, nil, map[string]int{"math": 2})
	require.NoError(t, err)
	assert.Equal(t, "q1", choice.Item.ID)
	assert.True(t, choice.Relaxed)
}

func TestSelectPrefersCappedTopicsFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPerTopic = 2
	sel := New(cfg)

	pool := []question.Item{
		item("q1", "math", 0),
		item("q2", "verbal", 1.5), // far from theta but topic under cap
	}
	choice, err := sel.Select(0, pool, nil, map[string]int{"math": 2, "verbal": 0})
	require.NoError(t, err)
	assert.Equal(t, "q2", choice.Item.ID)
	assert.False(t, choice.Relaxed)
}

func TestSelectEmptyPool(t *testing.T) {
	sel := New(DefaultConfig())

	_, err := sel.Select(0, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoEligibleItems)

	pool := []question.Item{item("q1", "math", 0)}
	_, err = sel.Select(0, pool, map[string]bool{"q1": true}, nil)
	assert.ErrorIs(t, err, ErrNoEligibleItems)
}

func TestSelectLegacyLabelsOnly(t *testing.T) {
	sel := New(DefaultConfig())
	pool := []question.Item{
		{ID: "q1", Topic: "math", Difficulty: irt.DifficultyEasy},
		{ID: "q2", Topic: "math", Difficulty: irt.DifficultyMedium},
		{ID: "q3", Topic: "math", Difficulty: irt.DifficultyHard},
	}

	choice, err := sel.Select(0, pool, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "q2", choice.Item.ID, "medium label maps to b=0, nearest theta=0")
}
