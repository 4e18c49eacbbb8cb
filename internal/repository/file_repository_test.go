package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

func newFileMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFileRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newFileMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectExec("INSERT INTO files").
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID := "u1"
	tpID := 1
	file := &models.FileRecord{
		TPID:      &tpID,
		UserID:    &userID,
		RemoteRef: "blob",
		Path:      "students/22012345_Alice_Martin/data.zip",
		FileType:  models.FileTypeDatasetZip,
	}
	require.NoError(t, repo.Create(context.Background(), file))
	assert.NotEmpty(t, file.ID)
	assert.False(t, file.UploadedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryFindDataset(t *testing.T) {
	db, mock, cleanup := newFileMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "tp_id", "user_id", "remote_ref", "path", "original_filename", "stored_filename", "file_type", "size_bytes", "uploaded_at"}).
		AddRow("f1", 1, "u1", "blob", "students/22012345_Alice_Martin/data.zip", nil, nil, models.FileTypeDatasetZip, nil, time.Now())
	mock.ExpectQuery("SELECT id, tp_id, user_id, remote_ref, path").
		WithArgs(1, "u1", models.FileTypeDatasetZip).
		WillReturnRows(rows)

	file, err := repo.FindDataset(context.Background(), 1, "u1")
	require.NoError(t, err)
	assert.Equal(t, "students/22012345_Alice_Martin/data.zip", file.Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositoryFindDatasetMissing(t *testing.T) {
	db, mock, cleanup := newFileMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectQuery("SELECT id, tp_id, user_id, remote_ref, path").
		WithArgs(1, "u1", models.FileTypeDatasetZip).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDataset(context.Background(), 1, "u1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestFileRepositoryCreateSubmission(t *testing.T) {
	db, mock, cleanup := newFileMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	mock.ExpectExec("INSERT INTO submissions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{TPID: 1, UserID: "u1", FileID: "f1", FileType: "embeddings"}
	require.NoError(t, repo.CreateSubmission(context.Background(), sub))
	assert.Equal(t, models.SubmissionStatusUploaded, sub.Status)
	assert.False(t, sub.ServerTimestamp.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepositorySubmissionSummaries(t *testing.T) {
	db, mock, cleanup := newFileMock(t)
	defer cleanup()
	repo := NewFileRepository(db)

	kind := "embeddings"
	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id", "full_name", "email", "submitted", "file_type", "submitted_at"}).
		AddRow("22012345", "Alice Martin", "alice@example.edu", true, kind, now).
		AddRow("22012346", "Bob Leroy", nil, false, nil, nil)
	mock.ExpectQuery("SELECT u.student_id, u.full_name, u.email").
		WithArgs(1).
		WillReturnRows(rows)

	summaries, err := repo.SubmissionSummaries(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Submitted)
	require.NotNil(t, summaries[0].FileType)
	assert.Equal(t, kind, *summaries[0].FileType)
	assert.False(t, summaries[1].Submitted)
	assert.Nil(t, summaries[1].FileType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
