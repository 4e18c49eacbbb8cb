package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

type tpReader interface {
	FindByID(ctx context.Context, tpID int) (*models.TP, error)
}

// resolveTPWindow loads a TP and checks that now falls inside its access
// window. The returned error carries the window bounds so handlers can echo
// them to the student.
func resolveTPWindow(ctx context.Context, repo tpReader, tpID int, now time.Time) (*models.TP, error) {
	tp, err := repo.FindByID(ctx, tpID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("TP %d not found", tpID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch TP")
	}

	effectiveEnd := tp.EffectiveEnd()
	if now.Before(tp.StartTime) || now.After(effectiveEnd) {
		msg := fmt.Sprintf("access to %s is only allowed between %s and %s",
			tp.Name,
			tp.StartTime.UTC().Format(time.RFC3339),
			effectiveEnd.UTC().Format(time.RFC3339))
		return nil, appErrors.Clone(appErrors.ErrOutOfWindow, msg)
	}
	return tp, nil
}
