package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

type stubAdminRepo struct {
	admin *models.Admin
}

func (r *stubAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if r.admin == nil || r.admin.Email != email {
		return nil, sql.ErrNoRows
	}
	copied := *r.admin
	return &copied, nil
}

func (r *stubAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func newAuthFixture(t *testing.T, active bool) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAdminRepo{admin: &models.Admin{
		ID:           "a1",
		Email:        "staff@example.edu",
		PasswordHash: string(hash),
		FullName:     "Staff Member",
		Active:       active,
	}}
	return NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour})
}

func TestAuthServiceLogin(t *testing.T) {
	svc := newAuthFixture(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "a1", resp.Admin.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)
	assert.Equal(t, "staff@example.edu", claims.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "nope"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthFixture(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "who@example.edu", Password: "s3cret"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactive(t *testing.T) {
	svc := newAuthFixture(t, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "s3cret"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	svc := newAuthFixture(t, true)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
