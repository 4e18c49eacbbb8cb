package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

// UserRepository manages persistence for student users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByStudentID fetches a user by their student identifier.
func (r *UserRepository) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	const query = `SELECT id, student_id, full_name, email, has_submitted, last_login, created_at
        FROM users WHERE student_id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, studentID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, student_id, full_name, email, has_submitted, created_at)
        VALUES (:id, :student_id, :full_name, :email, :has_submitted, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateSubmissionStatus flips the has_submitted flag.
func (r *UserRepository) UpdateSubmissionStatus(ctx context.Context, userID string, submitted bool) error {
	const query = `UPDATE users SET has_submitted = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, submitted); err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SubmittedFullNames returns the full names of users whose terminal
// submission flag is set.
func (r *UserRepository) SubmittedFullNames(ctx context.Context) ([]string, error) {
	const query = `SELECT full_name FROM users WHERE has_submitted = true`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list submitted names: %w", err)
	}
	return names, nil
}
