package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

type tpRepository interface {
	FindByID(ctx context.Context, tpID int) (*models.TP, error)
	Create(ctx context.Context, tp *models.TP) error
}

// TPService exposes exercise periods: public reads and admin creation.
type TPService struct {
	repo      tpRepository
	activity  activityWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTPService constructs a TPService.
func NewTPService(repo tpRepository, activity activityWriter, validate *validator.Validate, logger *zap.Logger) *TPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TPService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// Get returns one TP with its computed window end.
func (s *TPService) Get(ctx context.Context, tpID int) (*models.TPView, error) {
	tp, err := s.repo.FindByID(ctx, tpID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("TP %d not found", tpID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch TP")
	}
	return &models.TPView{TP: *tp, EffectiveEnd: tp.EffectiveEnd()}, nil
}

// Create opens a new exercise period.
func (s *TPService) Create(ctx context.Context, req models.CreateTPRequest) (*models.TPView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid TP payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	tp := &models.TP{
		Name:           req.Name,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		GraceMinutes:   req.GraceMinutes,
		MaxAccessHours: req.MaxAccessHours,
	}
	if err := s.repo.Create(ctx, tp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create TP")
	}

	if s.activity != nil {
		entry := &models.ActivityLog{TPID: &tp.TPID, ActionKey: models.ActionTPCreate, Details: fmt.Sprintf("TP %q created", tp.Name)}
		if err := s.activity.Create(ctx, entry); err != nil {
			s.logger.Warn("failed to write activity log", zap.Error(err))
		}
	}
	s.logger.Info("TP created", zap.Int("tp_id", tp.TPID), zap.String("name", tp.Name))
	return &models.TPView{TP: *tp, EffectiveEnd: tp.EffectiveEnd()}, nil
}
