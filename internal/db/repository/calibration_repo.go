package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CalibrationRepository tracks observed per-question difficulty from recorded
// responses. Write-only bookkeeping: the live selector never reads it; it
// exists so calibrated parameters can be refit offline.
type CalibrationRepository struct {
	pool *pgxpool.Pool
}

func NewCalibrationRepository(pool *pgxpool.Pool) *CalibrationRepository {
	return &CalibrationRepository{pool: pool}
}

// Upsert records the latest observed difficulty for a question.
func (r *CalibrationRepository) Upsert(ctx context.Context, questionID string, observedDifficulty, discrimination float64, sampleSize int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO question_calibration
			(question_id, observed_difficulty, discrimination, sample_size, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (question_id) DO UPDATE SET
			observed_difficulty = EXCLUDED.observed_difficulty,
			discrimination      = EXCLUDED.discrimination,
			sample_size         = EXCLUDED.sample_size,
			last_updated        = EXCLUDED.last_updated`,
		questionID, observedDifficulty, discrimination, sampleSize, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert calibration: %w", err)
	}
	return nil
}

// ResponseStats returns how often a question has been answered and how often
// correctly, across all archived sessions.
func (r *CalibrationRepository) ResponseStats(ctx context.Context, questionID string) (total, correct int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_correct)
		FROM exam_responses
		WHERE question_id = $1`, questionID).Scan(&total, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("query response stats: %w", err)
	}
	return total, correct, nil
}

// RecordResponse appends one scored response to the durable response log.
func (r *CalibrationRepository) RecordResponse(ctx context.Context, sessionID, questionID string, isCorrect bool, timeTakenSecs int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exam_responses
			(session_id, question_id, is_correct, time_taken_secs, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		sessionID, questionID, isCorrect, timeTakenSecs, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert exam response: %w", err)
	}
	return nil
}
