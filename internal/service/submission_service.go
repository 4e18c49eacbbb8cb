package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/pkg/codehost"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
)

// Notebook-family kinds start with this prefix; "embeddings" is the terminal
// kind that closes the submission gate.
const (
	kindNotebookPrefix = "ipynb"
	kindEmbeddings     = "embeddings"
)

type submissionUserRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	UpdateSubmissionStatus(ctx context.Context, userID string, submitted bool) error
}

type submissionFileRepository interface {
	Create(ctx context.Context, file *models.FileRecord) error
	CreateSubmission(ctx context.Context, sub *models.Submission) error
}

type codePusher interface {
	PutFile(ctx context.Context, path string, content []byte, commitMessage string) (*codehost.Commit, error)
}

// SubmissionService pushes student work to the hosting repository and
// enforces the one-shot submission gate.
type SubmissionService struct {
	users     submissionUserRepository
	files     submissionFileRepository
	activity  activityWriter
	pusher    codePusher
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// WithMetrics attaches instrumentation; safe to skip.
func (s *SubmissionService) WithMetrics(m *MetricsService) *SubmissionService {
	s.metrics = m
	return s
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(
	users submissionUserRepository,
	files submissionFileRepository,
	activity activityWriter,
	pusher codePusher,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{
		users:     users,
		files:     files,
		activity:  activity,
		pusher:    pusher,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// validateFileKind checks the filename extension against the declared kind.
// Notebook-family kinds require .ipynb, embeddings requires .txt; any other
// kind passes.
func validateFileKind(kind, filename string) error {
	lower := strings.ToLower(filename)
	if strings.HasPrefix(kind, kindNotebookPrefix) && !strings.HasSuffix(lower, ".ipynb") {
		return appErrors.Clone(appErrors.ErrInvalidFileType,
			fmt.Sprintf("kind %q requires a .ipynb file, got %q", kind, filename))
	}
	if kind == kindEmbeddings && !strings.HasSuffix(lower, ".txt") {
		return appErrors.Clone(appErrors.ErrInvalidFileType,
			fmt.Sprintf("kind %q requires a .txt file, got %q", kind, filename))
	}
	return nil
}

// storedFilename derives a deterministic name keyed by kind so re-submitting
// the same kind overwrites while different kinds never collide.
func storedFilename(kind, studentID, sanitizedName, originalFilename string) string {
	base := fmt.Sprintf("%s_%s", studentID, sanitizedName)
	switch {
	case kind == kindEmbeddings:
		return fmt.Sprintf("embeddings_%s.txt", base)
	case kind == "ipynb_textprocess":
		return fmt.Sprintf("textprocess_%s.ipynb", base)
	case kind == "ipynb_classifier":
		return fmt.Sprintf("classifier_%s.ipynb", base)
	case strings.HasPrefix(kind, kindNotebookPrefix):
		return fmt.Sprintf("notebook_%s.ipynb", base)
	default:
		return fmt.Sprintf("%s_%s%s", kind, base, filepath.Ext(originalFilename))
	}
}

// Submit pushes one work file for a registered student.
func (s *SubmissionService) Submit(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	user, err := s.users.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s is not registered", req.StudentID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.HasSubmitted {
		return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "")
	}

	if err := validateFileKind(req.FileKind, req.OriginalFilename); err != nil {
		return nil, err
	}

	sanitized := SanitizeName(user.FullName)
	stored := storedFilename(req.FileKind, req.StudentID, sanitized, req.OriginalFilename)
	remotePath := fmt.Sprintf("%s_%s/%s", req.StudentID, sanitized, stored)
	commitMessage := fmt.Sprintf("Add %s for TP by %s", req.FileKind, user.FullName)

	commit, err := s.pusher.PutFile(ctx, remotePath, req.Content, commitMessage)
	if err != nil {
		s.metrics.RecordSubmission(req.FileKind, "failed")
		s.audit(ctx, &user.ID, &req.TPID, models.ActionError,
			fmt.Sprintf("submission push failed for %s: %v", req.StudentID, err))
		s.logger.Error("submission push failed",
			zap.String("student_id", req.StudentID),
			zap.String("path", remotePath),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamWriteFailed.Code, appErrors.ErrUpstreamWriteFailed.Status, "failed to push submission")
	}

	size := int64(len(req.Content))
	record := &models.FileRecord{
		TPID:             &req.TPID,
		UserID:           &user.ID,
		RemoteRef:        commit.HTMLURL,
		Path:             remotePath,
		OriginalFilename: &req.OriginalFilename,
		StoredFilename:   &stored,
		FileType:         req.FileKind,
		SizeBytes:        &size,
	}
	if err := s.files.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist submission record")
	}

	submittedAt := s.now().UTC()
	submission := &models.Submission{
		TPID:            req.TPID,
		UserID:          user.ID,
		FileID:          record.ID,
		FileType:        req.FileKind,
		Status:          models.SubmissionStatusUploaded,
		ServerTimestamp: submittedAt,
	}
	if err := s.files.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist submission")
	}

	terminal := req.FileKind == kindEmbeddings
	if terminal {
		if err := s.users.UpdateSubmissionStatus(ctx, user.ID, true); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close submission gate")
		}
	}

	s.metrics.RecordSubmission(req.FileKind, "stored")
	s.audit(ctx, &user.ID, &req.TPID, models.ActionSubmission,
		fmt.Sprintf("%s submitted %s as %s", req.StudentID, req.FileKind, stored))
	s.logger.Info("submission stored",
		zap.String("student_id", req.StudentID),
		zap.String("kind", req.FileKind),
		zap.String("commit", commit.SHA))

	return &models.SubmissionResult{
		StoredFilename: stored,
		Path:           remotePath,
		CommitURL:      commit.HTMLURL,
		FileType:       req.FileKind,
		HasSubmitted:   terminal,
		SubmittedAt:    submittedAt,
	}, nil
}

func (s *SubmissionService) audit(ctx context.Context, userID *string, tpID *int, action, details string) {
	entry := &models.ActivityLog{UserID: userID, TPID: tpID, ActionKey: action, Details: details}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write activity log", zap.String("action", action), zap.Error(err))
	}
}
