package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
	"github.com/nlp-m1/tp-portal-api/pkg/export"
)

type reportFileRepository interface {
	SubmissionSummaries(ctx context.Context, tpID int) ([]models.SubmissionSummary, error)
}

type activityReader interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// ReportService renders admin exports of submission state and the audit
// trail.
type ReportService struct {
	files    reportFileRepository
	activity activityReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(files reportFileRepository, activity activityReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		files:    files,
		activity: activity,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// Activity returns the paged audit trail.
func (s *ReportService) Activity(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	logs, total, err := s.activity.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return logs, total, nil
}

func (s *ReportService) submissionDataset(ctx context.Context, tpID int) (export.Dataset, error) {
	summaries, err := s.files.SubmissionSummaries(ctx, tpID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build report")
	}

	data := export.Dataset{
		Headers: []string{"student_id", "full_name", "email", "submitted", "file_type", "submitted_at"},
	}
	for _, row := range summaries {
		record := map[string]string{
			"student_id": row.StudentID,
			"full_name":  row.FullName,
			"submitted":  "no",
		}
		if row.Submitted {
			record["submitted"] = "yes"
		}
		if row.Email != nil {
			record["email"] = *row.Email
		}
		if row.FileType != nil {
			record["file_type"] = *row.FileType
		}
		if row.SubmittedAt != nil {
			record["submitted_at"] = row.SubmittedAt.UTC().Format(time.RFC3339)
		}
		data.Rows = append(data.Rows, record)
	}
	return data, nil
}

// SubmissionsCSV renders the per-student submission report as CSV.
func (s *ReportService) SubmissionsCSV(ctx context.Context, tpID int) ([]byte, string, error) {
	data, err := s.submissionDataset(ctx, tpID)
	if err != nil {
		return nil, "", err
	}
	content, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return content, export.Filename("submissions", "csv", time.Now()), nil
}

// SubmissionsPDF renders the per-student submission report as PDF.
func (s *ReportService) SubmissionsPDF(ctx context.Context, tpID int) ([]byte, string, error) {
	data, err := s.submissionDataset(ctx, tpID)
	if err != nil {
		return nil, "", err
	}
	content, err := s.pdf.Render(data, "TP submissions")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return content, export.Filename("submissions", "pdf", time.Now()), nil
}
