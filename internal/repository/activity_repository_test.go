package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlp-m1/tp-portal-api/internal/models"
)

func newActivityMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestActivityRepositoryCreateStampsTime(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec("INSERT INTO activity_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ActivityLog{ActionKey: models.ActionRegistration, Details: "student 22012345"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryList(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "tp_id", "action_key", "details", "created_at"}).
		AddRow(2, "u1", 1, models.ActionSubmission, "embeddings", time.Now()).
		AddRow(1, "u1", 1, models.ActionRegistration, "student 22012345", time.Now().Add(-time.Minute))
	mock.ExpectQuery("SELECT id, user_id, tp_id, action_key, details, created_at").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM activity_log`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	logs, total, err := repo.List(context.Background(), models.ActivityFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 7, total)
	assert.Equal(t, models.ActionSubmission, logs[0].ActionKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListFiltersAction(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "tp_id", "action_key", "details", "created_at"}).
		AddRow(3, "u2", 1, models.ActionError, "window closed", time.Now())
	mock.ExpectQuery("SELECT id, user_id, tp_id, action_key, details, created_at").
		WithArgs(models.ActionError).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM activity_log`).
		WithArgs(models.ActionError).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.List(context.Background(), models.ActivityFilter{ActionKey: models.ActionError})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
