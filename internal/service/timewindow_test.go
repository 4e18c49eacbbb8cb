package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

type stubTPReader struct {
	tp  *models.TP
	err error
}

func (s *stubTPReader) FindByID(ctx context.Context, tpID int) (*models.TP, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tp, nil
}

func windowTP(start time.Time) *models.TP {
	return &models.TP{
		TPID:           1,
		Name:           "TP1",
		StartTime:      start,
		EndTime:        start.Add(3 * time.Hour),
		GraceMinutes:   15,
		MaxAccessHours: 6,
	}
}

func TestResolveTPWindowInside(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	repo := &stubTPReader{tp: windowTP(start)}

	tp, err := resolveTPWindow(context.Background(), repo, 1, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, tp.TPID)
}

func TestResolveTPWindowGraceStillOpen(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	repo := &stubTPReader{tp: windowTP(start)}

	// 3h10m after start: past end_time but inside the 15 minute grace.
	_, err := resolveTPWindow(context.Background(), repo, 1, start.Add(3*time.Hour+10*time.Minute))
	require.NoError(t, err)
}

func TestResolveTPWindowBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	repo := &stubTPReader{tp: windowTP(start)}

	_, err := resolveTPWindow(context.Background(), repo, 1, start.Add(-time.Minute))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutOfWindow))
	assert.Contains(t, err.Error(), "2026-03-02T08:00:00Z")
}

func TestResolveTPWindowMaxAccessCaps(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tp := windowTP(start)
	// End far in the future; max_access_hours becomes the binding limit.
	tp.EndTime = start.Add(48 * time.Hour)
	repo := &stubTPReader{tp: tp}

	_, err := resolveTPWindow(context.Background(), repo, 1, start.Add(7*time.Hour))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutOfWindow))
}

func TestResolveTPWindowUnknownTP(t *testing.T) {
	repo := &stubTPReader{err: sql.ErrNoRows}

	_, err := resolveTPWindow(context.Background(), repo, 42, time.Now())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
