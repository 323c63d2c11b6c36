package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
	"github.com/noah-isme/academy-crm-api/pkg/export"
)

// ExportFormat names a supported worklist export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportService renders the categorised worklist into downloadable documents.
type ExportService struct {
	worklist *WorklistService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(worklist *WorklistService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		worklist: worklist,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// WorklistExport is the rendered document with download metadata.
type WorklistExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportWorklist renders the triple-stack for a date in the requested format.
func (s *ExportService) ExportWorklist(ctx context.Context, selectedDate time.Time, format ExportFormat) (*WorklistExport, error) {
	stack, _, err := s.worklist.TripleStack(ctx, selectedDate)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Bucket", "Lead", "Status", "Follow-up", "Phone"},
	}
	appendRows := func(bucket string, leads []models.Lead) {
		for _, lead := range leads {
			followUp := ""
			if lead.NextFollowupDate != nil {
				followUp = lead.NextFollowupDate.Format(dateutil.DateLayout)
			}
			phone := ""
			if lead.Phone != nil {
				phone = *lead.Phone
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Bucket":    bucket,
				"Lead":      lead.Name,
				"Status":    string(lead.Status),
				"Follow-up": followUp,
				"Phone":     phone,
			})
		}
	}
	appendRows("Overdue", stack.Overdue)
	appendRows("Today", stack.Today)
	appendRows("Upcoming", stack.Upcoming)

	base := fmt.Sprintf("worklist-%s", stack.SelectedDate)
	switch strings.ToLower(string(format)) {
	case string(ExportCSV):
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv render failed")
		}
		return &WorklistExport{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	case string(ExportPDF):
		body, err := s.pdf.Render(dataset, "Daily Worklist "+stack.SelectedDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf render failed")
		}
		return &WorklistExport{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
