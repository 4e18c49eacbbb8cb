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

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryFindByStudentID(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	email := "alice@example.edu"
	rows := sqlmock.NewRows([]string{"id", "student_id", "full_name", "email", "has_submitted", "last_login", "created_at"}).
		AddRow("u1", "22012345", "Alice Martin", email, false, nil, time.Now())
	mock.ExpectQuery("SELECT id, student_id, full_name, email, has_submitted, last_login, created_at").
		WithArgs("22012345").
		WillReturnRows(rows)

	user, err := repo.FindByStudentID(context.Background(), "22012345")
	require.NoError(t, err)
	assert.Equal(t, "Alice Martin", user.FullName)
	require.NotNil(t, user.Email)
	assert.Equal(t, email, *user.Email)
	assert.False(t, user.HasSubmitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{StudentID: "22012345", FullName: "Alice Martin"}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateSubmissionStatus(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET has_submitted").
		WithArgs("u1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSubmissionStatus(context.Background(), "u1", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySubmittedFullNames(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"full_name"}).
		AddRow("Alice Martin").
		AddRow("Bruno Keller")
	mock.ExpectQuery("SELECT full_name FROM users WHERE has_submitted").
		WillReturnRows(rows)

	names, err := repo.SubmittedFullNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Martin", "Bruno Keller"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
