package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	"github.com/noah-isme/attendance-insight-api/pkg/answer"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

type fakeReportGenerator struct {
	result  *models.ReportResult
	request models.ReportRequest
	err     error
}

func (f *fakeReportGenerator) GenerateReport(_ context.Context, req models.ReportRequest) (*models.ReportResult, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAlertLister struct {
	alerts []models.AttendanceAlert
}

func (f *fakeAlertLister) ListAlerts(context.Context, repository.AlertFilter) ([]models.AttendanceAlert, error) {
	return f.alerts, nil
}

type fakeAnswerClient struct {
	reply *answer.Response
	err   error
}

func (f *fakeAnswerClient) Ask(context.Context, string) (*answer.Response, error) {
	return f.reply, f.err
}

func sampleResult() *models.ReportResult {
	return &models.ReportResult{
		ReportType: models.ReportTypeSummary,
		Data: models.ReportData{
			Summary: models.ReportSummary{
				TotalRecords:  10,
				TotalStudents: 5,
				Present:       7,
				Absent:        2,
				Late:          1,
				PresentRate:   "70%",
			},
		},
	}
}

func TestInterpretAttendanceLookup(t *testing.T) {
	reports := &fakeReportGenerator{result: sampleResult()}
	svc := NewQueryService(reports, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "Who was absent this week?")

	assert.True(t, response.Success)
	assert.NotEmpty(t, response.Answer)
	assert.Contains(t, response.Answer, "absent")
	require.NotNil(t, reports.request.Status)
	assert.Equal(t, models.AttendanceStatusAbsent, *reports.request.Status)
	assert.Equal(t, models.PeriodWeek, reports.request.RelativePeriod)
	assert.True(t, reports.request.UseCache)
	assert.Equal(t, 1.0, response.Confidence)
	assert.Equal(t, models.ConfidenceHigh, response.Band)
	require.NotEmpty(t, response.SuggestedActions)
	for _, action := range response.SuggestedActions {
		assert.NotEmpty(t, action.Type)
		assert.NotEmpty(t, action.Label)
	}
}

func TestInterpretExtractsStudentName(t *testing.T) {
	reports := &fakeReportGenerator{result: sampleResult()}
	svc := NewQueryService(reports, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "How many times was Johnson absent this month?")

	assert.True(t, response.Success)
	assert.Equal(t, "Johnson", reports.request.LastName)
	assert.Equal(t, models.PeriodMonth, reports.request.RelativePeriod)
}

func TestInterpretTrendRequest(t *testing.T) {
	result := sampleResult()
	result.ReportType = models.ReportTypeTrend
	result.Data.Trend = &models.TrendSummary{CurrentRate: 90, PreviousRate: 80, DeltaPoints: 10, Direction: models.TrendUp}
	reports := &fakeReportGenerator{result: result}
	svc := NewQueryService(reports, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "Is attendance trending up this month?")

	assert.True(t, response.Success)
	assert.True(t, reports.request.IncludeTrends)
	assert.Contains(t, response.Answer, "trending up")
}

func TestInterpretAlertLookup(t *testing.T) {
	alerts := &fakeAlertLister{alerts: []models.AttendanceAlert{
		{ID: "a1", Status: models.AlertStatusActive},
		{ID: "a2", Status: models.AlertStatusActive},
	}}
	svc := NewQueryService(&fakeReportGenerator{result: sampleResult()}, alerts, nil, nil, nil)

	response := svc.Interpret(context.Background(), "Are there any active alerts?")

	assert.True(t, response.Success)
	assert.Contains(t, response.Answer, "2 active attendance alerts")
}

func TestInterpretUnmappableQueryFailsSanitized(t *testing.T) {
	svc := NewQueryService(&fakeReportGenerator{result: sampleResult()}, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "What is the meaning of life?")

	assert.False(t, response.Success)
	assert.Equal(t, SanitizedFailureAnswer, response.Answer)
	assert.Zero(t, response.Confidence)
	assert.Equal(t, models.ConfidenceLow, response.Band)
}

func TestInterpretEmptyQueryFailsSanitized(t *testing.T) {
	svc := NewQueryService(&fakeReportGenerator{}, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "   ")

	assert.False(t, response.Success)
	assert.Equal(t, SanitizedFailureAnswer, response.Answer)
}

func TestInterpretReportFailureNeverLeaksError(t *testing.T) {
	reports := &fakeReportGenerator{err: errors.New("pq: connection refused")}
	svc := NewQueryService(reports, &fakeAlertLister{}, nil, nil, nil)

	response := svc.Interpret(context.Background(), "Who was absent today?")

	assert.False(t, response.Success)
	assert.Equal(t, SanitizedFailureAnswer, response.Answer)
	assert.NotContains(t, response.Answer, "connection refused")
}

func TestInterpretFallbackClient(t *testing.T) {
	fallback := &fakeAnswerClient{reply: &answer.Response{Answer: "The cafeteria opens at 8am.", Confidence: 0.9}}
	svc := NewQueryService(&fakeReportGenerator{}, &fakeAlertLister{}, fallback, nil, nil)

	response := svc.Interpret(context.Background(), "When does the cafeteria open?")

	assert.True(t, response.Success)
	assert.Equal(t, "The cafeteria opens at 8am.", response.Answer)
	assert.Equal(t, models.ConfidenceHigh, response.Band)
}

func TestInterpretFallbackFailureSanitized(t *testing.T) {
	fallback := &fakeAnswerClient{err: errors.New("dial tcp: timeout")}
	svc := NewQueryService(&fakeReportGenerator{}, &fakeAlertLister{}, fallback, nil, nil)

	response := svc.Interpret(context.Background(), "When does the cafeteria open?")

	assert.False(t, response.Success)
	assert.Equal(t, SanitizedFailureAnswer, response.Answer)
}

func TestInterpretFallbackMalformedReplySanitized(t *testing.T) {
	svc := NewQueryService(&fakeReportGenerator{}, &fakeAlertLister{}, &fakeAnswerClient{reply: &answer.Response{Answer: ""}}, nil, nil)
	response := svc.Interpret(context.Background(), "When does the cafeteria open?")
	assert.False(t, response.Success)
	assert.Equal(t, SanitizedFailureAnswer, response.Answer)

	svc = NewQueryService(&fakeReportGenerator{}, &fakeAlertLister{}, &fakeAnswerClient{reply: &answer.Response{Answer: "ok", Confidence: 1.7}}, nil, nil)
	response = svc.Interpret(context.Background(), "When does the cafeteria open?")
	assert.False(t, response.Success)
}

func TestClassifyFallbackError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", fmt.Errorf("ask: %w", context.DeadlineExceeded), appErrors.CodeTimeout},
		{"canceled", context.Canceled, appErrors.CodeTimeout},
		{"malformed reply", fmt.Errorf("%w: unexpected end of JSON input", answer.ErrMalformedResponse), appErrors.CodeParsingError},
		{"remote failure", errors.New("answer service error (status 502)"), appErrors.CodeAPIError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := appErrors.FromError(classifyFallbackError(tc.err))
			assert.Equal(t, tc.code, classified.Code)
		})
	}
}

func TestInterpretConfidenceBands(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, models.InterpretConfidence(0.8))
	assert.Equal(t, models.ConfidenceHigh, models.InterpretConfidence(0.95))
	assert.Equal(t, models.ConfidenceMedium, models.InterpretConfidence(0.5))
	assert.Equal(t, models.ConfidenceMedium, models.InterpretConfidence(0.79))
	assert.Equal(t, models.ConfidenceLow, models.InterpretConfidence(0.49))
	assert.Equal(t, models.ConfidenceLow, models.InterpretConfidence(0))
}

func TestExtractEntitiesDate(t *testing.T) {
	entities := extractEntities("Show attendance for 2025-03-10")
	require.NotNil(t, entities.Date)
	assert.Equal(t, "2025-03-10", *entities.Date)

	entities = extractEntities("Show attendance for 2025-02-30")
	assert.Nil(t, entities.Date)
}
