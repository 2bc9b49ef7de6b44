package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/models"
)

func exportableResult() *models.ReportResult {
	return &models.ReportResult{
		ReportType: models.ReportTypeAttendance,
		Data: models.ReportData{
			Summary: models.ReportSummary{
				TotalRecords:  4,
				TotalStudents: 2,
				Present:       3,
				Absent:        1,
				PresentRate:   "75%",
			},
			Rows: []models.StudentReportRow{
				{StudentID: "s1", LastName: "nguyen", Total: 2, Present: 2, PresentRate: "100%"},
				{StudentID: "s2", LastName: "tran", Total: 2, Present: 1, Absent: 1, PresentRate: "50%"},
			},
		},
		Metrics: models.ReportMetrics{QueryComplexity: models.ComplexitySimple},
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	svc := NewExportService(nil, nil)
	original := exportableResult()

	result, err := svc.Export(original, FormatJSON, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.MIMEType)

	var parsed models.ReportResult
	require.NoError(t, json.Unmarshal(result.Data, &parsed))
	assert.Equal(t, original.Data.Summary, parsed.Data.Summary)
	assert.Equal(t, original.Data.Rows, parsed.Data.Rows)
}

func TestExportFilenameDeterministic(t *testing.T) {
	svc := NewExportService(nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }

	result, err := svc.Export(exportableResult(), FormatCSV, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-03-12.csv", result.Filename)

	result, err = svc.Export(exportableResult(), FormatPDF, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-03-12.pdf", result.Filename)
}

func TestExportCSVRows(t *testing.T) {
	svc := NewExportService(nil, nil)

	result, err := svc.Export(exportableResult(), FormatCSV, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.MIMEType)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "student_id")
	assert.Contains(t, lines[1], "s1")
	assert.Contains(t, lines[2], "s2")
}

func TestExportCSVSummaryOnly(t *testing.T) {
	svc := NewExportService(nil, nil)

	result, err := svc.Export(exportableResult(), FormatCSV, ExportOptions{SummaryOnly: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "total_records")
	assert.NotContains(t, string(result.Data), "s1")
}

func TestExportJSONSummaryOnlyDropsRows(t *testing.T) {
	svc := NewExportService(nil, nil)

	result, err := svc.Export(exportableResult(), FormatJSON, ExportOptions{SummaryOnly: true})
	require.NoError(t, err)

	var parsed models.ReportResult
	require.NoError(t, json.Unmarshal(result.Data, &parsed))
	assert.Empty(t, parsed.Data.Rows)
	assert.Equal(t, 4, parsed.Data.Summary.TotalRecords)
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc := NewExportService(nil, nil)

	result, err := svc.Export(exportableResult(), FormatPDF, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.MIMEType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewExportService(nil, nil)

	_, err := svc.Export(exportableResult(), "xlsx", ExportOptions{})
	assert.Error(t, err)

	_, err = svc.Export(nil, FormatCSV, ExportOptions{})
	assert.Error(t, err)
}
