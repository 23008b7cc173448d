package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/models"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
	"github.com/saferoute/admin-api/pkg/export"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders an operator's current composed view as a tabular
// document. The view itself is the sole input; layout beyond a plain table
// is not this service's concern.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"Category", "Landmark", "Barangay", "Description", "Reporter", "Date", "Time"}

// Render produces the document bytes and content type for the given rows.
func (s *ExportService) Render(reports []models.EnrichedReport, format ExportFormat, title string) ([]byte, string, error) {
	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(reports))}
	for _, r := range reports {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Category":    r.Category,
			"Landmark":    orDash(r.Landmark),
			"Barangay":    r.Barangay,
			"Description": orDash(r.Description),
			"Reporter":    r.ReporterName,
			"Date":        dateOnly(r.EpochMs),
			"Time":        timeOnly(r.EpochMs),
		})
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return models.Dash
	}
	return *s
}

func dateOnly(ms int64) string {
	if ms == 0 {
		return models.Dash
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func timeOnly(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("15:04")
}
