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

	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	"github.com/noah-isme/attendance-insight-api/internal/service"
)

type alertListerStub struct{}

func (alertListerStub) ListAlerts(context.Context, repository.AlertFilter) ([]models.AttendanceAlert, error) {
	return nil, nil
}

func newQueryTestHandler(t *testing.T, records []models.AttendanceRecord) *QueryHandler {
	t.Helper()
	reports := service.NewReportService(&recordListerStub{records: records}, nil, nil, nil, service.ReportServiceConfig{})
	queries := service.NewQueryService(reports, alertListerStub{}, nil, nil, nil)
	return NewQueryHandler(queries)
}

func TestQueryHandlerAsk(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQueryTestHandler(t, sampleRecords(t))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"query": "Who was absent today?"})
	req, _ := http.NewRequest(http.MethodPost, "/query", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Ask(c)
	require.Equal(t, http.StatusOK, w.Code)

	var parsed models.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.True(t, parsed.Success)
	assert.NotEmpty(t, parsed.Answer)
}

func TestQueryHandlerAskUnmappable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQueryTestHandler(t, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]string{"query": "What is the fastest bird?"})
	req, _ := http.NewRequest(http.MethodPost, "/query", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Ask(c)
	// Interpreter failures still answer 200 with the sanitized envelope.
	require.Equal(t, http.StatusOK, w.Code)

	var parsed models.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.False(t, parsed.Success)
	assert.Equal(t, service.SanitizedFailureAnswer, parsed.Answer)
	assert.Zero(t, parsed.Confidence)
}

func TestQueryHandlerAskMissingQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQueryTestHandler(t, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Ask(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
