package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

// ActivityRepository persists the append-only audit trail.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity record.
func (r *ActivityRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activity_log (user_id, tp_id, action_key, details, created_at)
        VALUES (:user_id, :tp_id, :action_key, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// List returns activity records newest first with pagination.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	args := []interface{}{}
	where := ""
	if filter.ActionKey != "" {
		where = " WHERE action_key = $1"
		args = append(args, filter.ActionKey)
	}

	query := fmt.Sprintf(`SELECT id, user_id, tp_id, action_key, details, created_at
        FROM activity_log%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)
	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity log: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM activity_log"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity log: %w", err)
	}
	return logs, total, nil
}
