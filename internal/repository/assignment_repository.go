package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

// AssignmentRepository persists author allocations and their hidden test ids.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByTPAndUser fetches the allocation row for one student and TP.
func (r *AssignmentRepository) FindByTPAndUser(ctx context.Context, tpID int, userID string) (*models.AssignedClasses, error) {
	const query = `SELECT id, tp_id, user_id, class_1, class_2, class_3, assigned_at
        FROM assigned_classes WHERE tp_id = $1 AND user_id = $2 LIMIT 1`
	var assigned models.AssignedClasses
	if err := r.db.GetContext(ctx, &assigned, query, tpID, userID); err != nil {
		return nil, err
	}
	return &assigned, nil
}

// Create inserts the allocation row. The unique constraint on
// (tp_id, user_id) makes a concurrent duplicate surface as a conflict; use
// IsUniqueViolation to detect it and fall back to the idempotent read.
func (r *AssignmentRepository) Create(ctx context.Context, assigned *models.AssignedClasses) error {
	if assigned.AssignedAt.IsZero() {
		assigned.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assigned_classes (tp_id, user_id, class_1, class_2, class_3, assigned_at)
        VALUES (:tp_id, :user_id, :class_1, :class_2, :class_3, :assigned_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assigned); err != nil {
		return fmt.Errorf("create assigned classes: %w", err)
	}
	return nil
}

// CreateHiddenTests inserts the withheld labels for one allocation.
func (r *AssignmentRepository) CreateHiddenTests(ctx context.Context, hidden []models.HiddenTestID) error {
	if len(hidden) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range hidden {
		if hidden[i].CreatedAt.IsZero() {
			hidden[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO hidden_test_ids (tp_id, user_id, text_id, ground_truth, created_at)
        VALUES (:tp_id, :user_id, :text_id, :ground_truth, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hidden); err != nil {
		return fmt.Errorf("create hidden test ids: %w", err)
	}
	return nil
}

// ListHiddenTests returns the withheld labels for one allocation ordered by
// text id.
func (r *AssignmentRepository) ListHiddenTests(ctx context.Context, tpID int, userID string) ([]models.HiddenTestID, error) {
	const query = `SELECT id, tp_id, user_id, text_id, ground_truth, created_at
        FROM hidden_test_ids WHERE tp_id = $1 AND user_id = $2 ORDER BY text_id`
	var hidden []models.HiddenTestID
	if err := r.db.SelectContext(ctx, &hidden, query, tpID, userID); err != nil {
		return nil, fmt.Errorf("list hidden test ids: %w", err)
	}
	return hidden, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
