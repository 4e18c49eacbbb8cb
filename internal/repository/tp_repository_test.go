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

func newTPMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTPRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newTPMock(t)
	defer cleanup()
	repo := NewTPRepository(db)

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	rows := sqlmock.NewRows([]string{"tp_id", "name", "description", "start_time", "end_time", "grace_minutes", "max_access_hours", "created_at", "updated_at"}).
		AddRow(1, "TP1 classification", nil, start, end, 15, 6, start, start)
	mock.ExpectQuery("SELECT tp_id, name, description, start_time, end_time").
		WithArgs(1).
		WillReturnRows(rows)

	tp, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, tp.TPID)
	assert.Equal(t, "TP1 classification", tp.Name)
	assert.Equal(t, 15, tp.GraceMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTPRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newTPMock(t)
	defer cleanup()
	repo := NewTPRepository(db)

	mock.ExpectQuery("INSERT INTO tps").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"tp_id"}).AddRow(7))

	tp := &models.TP{
		Name:           "TP2 embeddings",
		StartTime:      time.Now(),
		EndTime:        time.Now().Add(3 * time.Hour),
		GraceMinutes:   15,
		MaxAccessHours: 6,
	}
	err := repo.Create(context.Background(), tp)
	require.NoError(t, err)
	assert.Equal(t, 7, tp.TPID)
	assert.False(t, tp.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
