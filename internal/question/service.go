package question

import (
	"context"
	"fmt"
	"time"

	"github.com/examadapt/adaptive-engine/internal/db/repository"
)

// PoolCache defines cache behavior (implemented by the Redis-backed Cache).
type PoolCache interface {
	Get(ctx context.Context, req PoolRequest) (*PoolResponse, error)
	Set(ctx context.Context, req PoolRequest, resp PoolResponse) error
}

// Service is the item parameter store facade: it serves read-only candidate
// pools from Postgres with a short-TTL Redis cache in front.
type Service struct {
	repo  *repository.ItemRepository
	cache PoolCache
}

func NewService(repo *repository.ItemRepository, cache PoolCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Candidates returns the candidate pool for an optional topic filter.
// A cache error falls through to the repository; a repository error is fatal.
func (s *Service) Candidates(ctx context.Context, req PoolRequest) ([]Item, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, req); err == nil && cached != nil {
			return cached.Items, nil
		}
	}

	rows, err := s.repo.ListCandidates(ctx, req.Topic)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDomain(row))
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, req, PoolResponse{
			Items:     items,
			ExpiresAt: time.Now().Add(defaultCacheTTL).Unix(),
		})
	}

	return items, nil
}

// Get fetches a single item by id, bypassing the cache. Used when scoring a
// submission, where the stored correct option must be authoritative.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return toDomain(row), nil
}

func toDomain(row repository.ItemRow) Item {
	item := Item{
		ID:            row.ID,
		Topic:         row.Topic,
		Prompt:        row.Prompt,
		Options:       []string{row.OptionA, row.OptionB, row.OptionC, row.OptionD},
		CorrectOption: row.CorrectOption,
		Difficulty:    row.Difficulty,
	}
	if row.Calibrated != nil {
		calibrated := *row.Calibrated
		item.Calibrated = &calibrated
	}
	return item
}
