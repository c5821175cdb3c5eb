// Package selector picks the next exam item by maximizing Fisher information
// at the current ability estimate, with topic-diversity tie-breaking, an
// optional per-topic exposure cap, and a staged constraint-relaxation policy
// when the pool runs dry.
package selector

import (
	"errors"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
	"github.com/examadapt/adaptive-engine/internal/question"
)

// ErrNoEligibleItems means the pool is exhausted even at the weakest
// constraint level. Callers treat this as early exam completion, not failure.
var ErrNoEligibleItems = errors.New("no eligible items")

// Config holds selection constants (defaults match requirements).
type Config struct {
	// InfoTolerance widens the winner set: items within this fraction of the
	// maximum information count as tied. Default: 0.05.
	InfoTolerance float64
	// MaxPerTopic caps how often one topic may be shown in a session.
	// Zero disables the cap.
	MaxPerTopic int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{InfoTolerance: 0.05}
}

// Selector is a pure, stateless selection engine.
type Selector struct {
	config Config
}

func New(config Config) *Selector {
	if config.InfoTolerance <= 0 {
		config.InfoTolerance = 0.05
	}
	return &Selector{config: config}
}

// Choice is a selection outcome. Relaxed is set when the topic constraints
// had to be dropped to find an item, so the caller can count relaxations.
type Choice struct {
	Item    question.Item
	Relaxed bool
}

// Select returns the single best next item for the given ability.
// Already-answered ids are excluded absolutely; answered and topicCounts are
// never mutated.
//
// Constraint ladder: first try topics under the exposure cap with the
// diversity tie-break; if that leaves nothing, drop the diversity preference
// and then the cap entirely, widening to the full remaining pool; only when
// no unanswered item exists at all does it report ErrNoEligibleItems.
func (s *Selector) Select(theta float64, candidates []question.Item, answered map[string]bool, topicCounts map[string]int) (Choice, error) {
	remaining := make([]question.Item, 0, len(candidates))
	for _, item := range candidates {
		if answered[item.ID] {
			continue
		}
		remaining = append(remaining, item)
	}
	if len(remaining) == 0 {
		return Choice{}, ErrNoEligibleItems
	}

	// Stage 1: exposure cap + diversity tie-break.
	capped := s.underTopicCap(remaining, topicCounts)
	if len(capped) > 0 {
		tied := s.informationWinners(theta, capped)
		best := leastShownTopic(tied, topicCounts)
		return Choice{Item: lowestID(best)}, nil
	}

	// Stage 2+3: every topic is at its cap; ignore topic constraints and
	// pick from the full remaining pool on information alone.
	tied := s.informationWinners(theta, remaining)
	return Choice{Item: lowestID(tied), Relaxed: true}, nil
}

func (s *Selector) underTopicCap(items []question.Item, topicCounts map[string]int) []question.Item {
	if s.config.MaxPerTopic <= 0 {
		return items
	}
	var kept []question.Item
	for _, item := range items {
		if topicCounts[item.Topic] < s.config.MaxPerTopic {
			kept = append(kept, item)
		}
	}
	return kept
}

// informationWinners returns all items within the tolerance band of the
// maximum Fisher information at theta.
func (s *Selector) informationWinners(theta float64, items []question.Item) []question.Item {
	maxInfo := 0.0
	infos := make([]float64, len(items))
	for i, item := range items {
		infos[i] = irt.Information(theta, item.Params())
		if infos[i] > maxInfo {
			maxInfo = infos[i]
		}
	}

	threshold := maxInfo * (1 - s.config.InfoTolerance)
	var winners []question.Item
	for i, item := range items {
		if infos[i] >= threshold {
			winners = append(winners, item)
		}
	}
	return winners
}

func leastShownTopic(items []question.Item, topicCounts map[string]int) []question.Item {
	minShown := -1
	for _, item := range items {
		shown := topicCounts[item.Topic]
		if minShown < 0 || shown < minShown {
			minShown = shown
		}
	}
	var kept []question.Item
	for _, item := range items {
		if topicCounts[item.Topic] == minShown {
			kept = append(kept, item)
		}
	}
	return kept
}

func lowestID(items []question.Item) question.Item {
	best := items[0]
	for _, item := range items[1:] {
		if item.ID < best.ID {
			best = item
		}
	}
	return best
}
