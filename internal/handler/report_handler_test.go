package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/dto"
	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/service"
	"github.com/noah-isme/attendance-insight-api/pkg/response"
)

type recordListerStub struct {
	records []models.AttendanceRecord
}

func (s *recordListerStub) List(context.Context, models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	return s.records, nil
}

func (s *recordListerStub) ListDaysOff(context.Context) ([]models.ScheduledDayOff, error) {
	return nil, nil
}

func newReportTestHandler(t *testing.T, records []models.AttendanceRecord) *ReportHandler {
	t.Helper()
	reports := service.NewReportService(&recordListerStub{records: records}, nil, nil, nil, service.ReportServiceConfig{})
	return NewReportHandler(reports)
}

func sampleRecords(t *testing.T) []models.AttendanceRecord {
	t.Helper()
	present, err := models.NewAttendanceRecord("s1", "2025-03-10", models.AttendanceStatusPresent, false, false)
	require.NoError(t, err)
	absent, err := models.NewAttendanceRecord("s2", "2025-03-10", models.AttendanceStatusAbsent, false, false)
	require.NoError(t, err)
	return []models.AttendanceRecord{*present, *absent}
}

func TestReportHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportTestHandler(t, sampleRecords(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.GenerateReportRequest{IncludeCount: true, IncludePercentage: true})
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result models.ReportResult
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, 2, result.Data.Summary.TotalRecords)
	assert.Equal(t, "50%", result.Data.Summary.PresentRate)
}

func TestReportHandlerGenerateInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportTestHandler(t, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.GenerateReportRequest{Date: "2025-02-30"})
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReportHandlerGenerateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportTestHandler(t, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
