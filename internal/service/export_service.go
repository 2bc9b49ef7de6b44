package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/export"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

type exportMetrics interface {
	RecordExport(format string)
}

// ExportOptions tunes export rendering.
type ExportOptions struct {
	SummaryOnly bool
}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// ExportService renders report results into CSV, JSON, or PDF downloads
// with deterministic filenames.
type ExportService struct {
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics exportMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(metrics exportMetrics, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Export renders the result in the requested format. The PDF format always
// renders the summary only.
func (s *ExportService) Export(result *models.ReportResult, format string, opts ExportOptions) (*ExportResult, error) {
	if result == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no report result to export")
	}

	var (
		data     []byte
		mimeType string
		err      error
	)
	switch format {
	case FormatCSV:
		data, err = s.renderCSV(result, opts)
		mimeType = "text/csv"
	case FormatJSON:
		data, err = s.renderJSON(result, opts)
		mimeType = "application/json"
	case FormatPDF:
		data, err = s.pdf.Render(summaryDataset(result), fmt.Sprintf("%s report", result.ReportType))
		mimeType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(format)
	}
	filename := fmt.Sprintf("%s-%s.%s", result.ReportType, s.now().UTC().Format("2006-01-02"), format)
	return &ExportResult{Filename: filename, MIMEType: mimeType, Data: data}, nil
}

func (s *ExportService) renderCSV(result *models.ReportResult, opts ExportOptions) ([]byte, error) {
	dataset := summaryDataset(result)
	if !opts.SummaryOnly && len(result.Data.Rows) > 0 {
		dataset = rowsDataset(result)
	}
	return s.csv.Render(dataset)
}

func (s *ExportService) renderJSON(result *models.ReportResult, opts ExportOptions) ([]byte, error) {
	if opts.SummaryOnly {
		trimmed := *result
		trimmed.Data.Rows = nil
		trimmed.Data.Streaks = nil
		return json.MarshalIndent(&trimmed, "", "  ")
	}
	return json.MarshalIndent(result, "", "  ")
}

func summaryDataset(result *models.ReportResult) export.Dataset {
	summary := result.Data.Summary
	return export.Dataset{
		Headers: []string{"total_records", "total_students", "present", "late", "absent", "excused", "present_rate"},
		Rows: []map[string]string{{
			"total_records":  strconv.Itoa(summary.TotalRecords),
			"total_students": strconv.Itoa(summary.TotalStudents),
			"present":        strconv.Itoa(summary.Present),
			"late":           strconv.Itoa(summary.Late),
			"absent":         strconv.Itoa(summary.Absent),
			"excused":        strconv.Itoa(summary.Excused),
			"present_rate":   summary.PresentRate,
		}},
	}
}

func rowsDataset(result *models.ReportResult) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"student_id", "last_name", "total", "present", "late", "absent", "excused", "present_rate"},
	}
	for _, row := range result.Data.Rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"student_id":   row.StudentID,
			"last_name":    row.LastName,
			"total":        strconv.Itoa(row.Total),
			"present":      strconv.Itoa(row.Present),
			"late":         strconv.Itoa(row.Late),
			"absent":       strconv.Itoa(row.Absent),
			"excused":      strconv.Itoa(row.Excused),
			"present_rate": row.PresentRate,
		})
	}
	return dataset
}
