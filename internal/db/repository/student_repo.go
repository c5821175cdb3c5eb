package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository resolves student identities against the students table.
// Account provisioning happens elsewhere; the engine only checks existence.
type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Exists reports whether the student id is known.
func (r *StudentRepository) Exists(ctx context.Context, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query student: %w", err)
	}
	return exists, nil
}
