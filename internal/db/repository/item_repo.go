package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examadapt/adaptive-engine/internal/exam/irt"
)

// ErrItemNotFound is returned when an item id does not exist.
var ErrItemNotFound = errors.New("item not found")

// ItemRow mirrors a questions table row. Calibrated is nil when the item has
// only a legacy difficulty label and no fitted IRT parameters.
type ItemRow struct {
	ID            string
	Topic         string
	Prompt        string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
	Difficulty    string
	Calibrated    *irt.Params
}

// ItemRepository reads the candidate question pool from Postgres.
type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemColumns = `id, topic, question_text, option_a, option_b, option_c, option_d,
	correct_option, difficulty, irt_a, irt_b, irt_c`

// ListCandidates returns all items, optionally restricted to one topic.
func (r *ItemRepository) ListCandidates(ctx context.Context, topic string) ([]ItemRow, error) {
	query := `SELECT ` + itemColumns + ` FROM questions`
	args := []any{}
	if topic != "" {
		query += ` WHERE topic = $1`
		args = append(args, topic)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var items []ItemRow
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetByID fetches one item.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (ItemRow, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM questions WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemRow{}, ErrItemNotFound
	}
	return item, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (ItemRow, error) {
	var item ItemRow
	var a, b, c *float64
	err := row.Scan(
		&item.ID, &item.Topic, &item.Prompt,
		&item.OptionA, &item.OptionB, &item.OptionC, &item.OptionD,
		&item.CorrectOption, &item.Difficulty,
		&a, &b, &c,
	)
	if err != nil {
		return ItemRow{}, err
	}
	// All three parameters must be present for the item to count as calibrated.
	if a != nil && b != nil && c != nil {
		item.Calibrated = &irt.Params{A: *a, B: *b, C: *c}
	}
	return item, nil
}
