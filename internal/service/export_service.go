package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/greenlake-gma/progress-api/internal/models"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
	"github.com/greenlake-gma/progress-api/pkg/export"
)

type reportProvider interface {
	GetByStudentAndLevel(ctx context.Context, studentID, levelID int64) (*models.LevelReport, error)
}

// ExportService renders a student's level report as CSV or PDF.
type ExportService struct {
	reports reportProvider
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(reports reportProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ExportResult carries a rendered document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportLevelReport builds the report and renders it in the requested format
// ("csv" or "pdf").
func (s *ExportService) ExportLevelReport(ctx context.Context, studentID, levelID int64, format string) (*ExportResult, error) {
	report, err := s.reports.GetByStudentAndLevel(ctx, studentID, levelID)
	if err != nil {
		return nil, err
	}

	dataset := reportDataset(report)
	base := fmt.Sprintf("progress_student_%d_level_%s", studentID, report.Level.Code)

	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: base + ".csv"}, nil
	case "pdf":
		title := fmt.Sprintf("%s progress for student %d", report.Level.DisplayName, studentID)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: base + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func reportDataset(report *models.LevelReport) export.Dataset {
	headers := []string{"Move", "Required", "Status", "Attempts", "Completed At", "Instructor", "Notes"}
	rows := make([]map[string]string, 0, len(report.Requirements))
	for _, req := range report.Requirements {
		row := map[string]string{
			"Move":     req.Move.Name,
			"Required": strconv.FormatBool(req.IsRequired),
			"Status":   string(req.Progress.Status),
			"Attempts": strconv.Itoa(req.Progress.Attempts),
		}
		if req.Progress.CompletedAt != nil {
			row["Completed At"] = req.Progress.CompletedAt.Format("2006-01-02 15:04")
		}
		if req.Progress.Instructor != nil {
			row["Instructor"] = req.Progress.Instructor.Name
		}
		if req.Progress.Notes != nil {
			row["Notes"] = *req.Progress.Notes
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
