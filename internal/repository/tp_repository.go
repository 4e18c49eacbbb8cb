package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

// TPRepository manages persistence for exercise periods.
type TPRepository struct {
	db *sqlx.DB
}

// NewTPRepository constructs a TPRepository.
func NewTPRepository(db *sqlx.DB) *TPRepository {
	return &TPRepository{db: db}
}

// FindByID fetches a TP by its identifier.
func (r *TPRepository) FindByID(ctx context.Context, tpID int) (*models.TP, error) {
	const query = `SELECT tp_id, name, description, start_time, end_time, grace_minutes, max_access_hours, created_at, updated_at
        FROM tps WHERE tp_id = $1`
	var tp models.TP
	if err := r.db.GetContext(ctx, &tp, query, tpID); err != nil {
		return nil, err
	}
	return &tp, nil
}

// Create inserts a new TP and fills in its generated id.
func (r *TPRepository) Create(ctx context.Context, tp *models.TP) error {
	now := time.Now().UTC()
	tp.CreatedAt = now
	tp.UpdatedAt = now
	const query = `INSERT INTO tps (name, description, start_time, end_time, grace_minutes, max_access_hours, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING tp_id`
	if err := r.db.GetContext(ctx, &tp.TPID, query,
		tp.Name, tp.Description, tp.StartTime, tp.EndTime, tp.GraceMinutes, tp.MaxAccessHours, tp.CreatedAt, tp.UpdatedAt); err != nil {
		return fmt.Errorf("create tp: %w", err)
	}
	return nil
}
