package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamResult is the durable summary archived when a session completes.
type ExamResult struct {
	SessionID     uuid.UUID
	StudentID     uuid.UUID
	Score         int
	Total         int
	Percentage    float64
	TimeTakenSecs int
	FinalAbility  float64
	StandardError float64
	CompletedAt   time.Time
}

// ResultRepository persists completed-session summaries for reporting.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Insert archives one completed session. The session id is the primary key,
// so re-archiving the same session is a no-op rather than a duplicate row.
func (r *ResultRepository) Insert(ctx context.Context, result ExamResult) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exam_results
			(session_id, student_id, score, total, percentage, time_taken_secs,
			 final_ability, standard_error, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING`,
		result.SessionID, result.StudentID, result.Score, result.Total,
		result.Percentage, result.TimeTakenSecs,
		result.FinalAbility, result.StandardError, result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}
	return nil
}

// ListByStudent returns a student's archived results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]ExamResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, student_id, score, total, percentage, time_taken_secs,
		       final_ability, standard_error, completed_at
		FROM exam_results
		WHERE student_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query exam results: %w", err)
	}
	defer rows.Close()

	var results []ExamResult
	for rows.Next() {
		var res ExamResult
		if err := rows.Scan(
			&res.SessionID, &res.StudentID, &res.Score, &res.Total,
			&res.Percentage, &res.TimeTakenSecs,
			&res.FinalAbility, &res.StandardError, &res.CompletedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
