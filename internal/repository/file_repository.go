package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

// FileRepository persists uploaded artifact records and submissions.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository constructs a FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file record.
func (r *FileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO files (id, tp_id, user_id, remote_ref, path, original_filename, stored_filename, file_type, size_bytes, uploaded_at)
        VALUES (:id, :tp_id, :user_id, :remote_ref, :path, :original_filename, :stored_filename, :file_type, :size_bytes, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create file record: %w", err)
	}
	return nil
}

// FindDataset fetches the dataset package record for one student and TP.
func (r *FileRepository) FindDataset(ctx context.Context, tpID int, userID string) (*models.FileRecord, error) {
	const query = `SELECT id, tp_id, user_id, remote_ref, path, original_filename, stored_filename, file_type, size_bytes, uploaded_at
        FROM files WHERE tp_id = $1 AND user_id = $2 AND file_type = $3
        ORDER BY uploaded_at DESC LIMIT 1`
	var file models.FileRecord
	if err := r.db.GetContext(ctx, &file, query, tpID, userID, models.FileTypeDatasetZip); err != nil {
		return nil, err
	}
	return &file, nil
}

// CreateSubmission inserts a submission row linked to a stored file.
func (r *FileRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ServerTimestamp.IsZero() {
		sub.ServerTimestamp = time.Now().UTC()
	}
	if sub.Status == "" {
		sub.Status = models.SubmissionStatusUploaded
	}
	const query = `INSERT INTO submissions (tp_id, user_id, file_id, file_type, status, server_timestamp)
        VALUES (:tp_id, :user_id, :file_id, :file_type, :status, :server_timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// SubmissionSummaries returns one row per user with their latest submission,
// for the admin report.
func (r *FileRepository) SubmissionSummaries(ctx context.Context, tpID int) ([]models.SubmissionSummary, error) {
	const query = `SELECT u.student_id, u.full_name, u.email, u.has_submitted AS submitted,
        s.file_type, s.server_timestamp AS submitted_at
        FROM users u
        LEFT JOIN LATERAL (
            SELECT file_type, server_timestamp FROM submissions
            WHERE user_id = u.id AND tp_id = $1
            ORDER BY server_timestamp DESC LIMIT 1
        ) s ON true
        ORDER BY u.full_name`
	var rows []models.SubmissionSummary
	if err := r.db.SelectContext(ctx, &rows, query, tpID); err != nil {
		return nil, fmt.Errorf("list submission summaries: %w", err)
	}
	return rows, nil
}
