package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	"github.com/noah-isme/attendance-insight-api/pkg/answer"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

// SanitizedFailureAnswer is the only failure text the interpreter ever
// returns to a caller. Technical errors are logged, never surfaced.
const SanitizedFailureAnswer = "I'm sorry, but I couldn't process that request properly."

type reportGenerator interface {
	GenerateReport(ctx context.Context, req models.ReportRequest) (*models.ReportResult, error)
}

type alertLister interface {
	ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.AttendanceAlert, error)
}

type answerClient interface {
	Ask(ctx context.Context, query string) (*answer.Response, error)
}

type queryMetrics interface {
	RecordQuery(success bool, band string)
}

// QueryService interprets free-text questions into structured report
// requests, executes them, and renders a short natural-language answer with
// a confidence score.
type QueryService struct {
	reports  reportGenerator
	alerts   alertLister
	fallback answerClient
	metrics  queryMetrics
	logger   *zap.Logger
}

// NewQueryService constructs the interpreter. The fallback client is
// optional; when nil, unmappable queries fail with the sanitized answer.
func NewQueryService(reports reportGenerator, alerts alertLister, fallback answerClient, metrics queryMetrics, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{reports: reports, alerts: alerts, fallback: fallback, metrics: metrics, logger: logger}
}

// Interpret maps a free-text question to an intent, extracts entities, runs
// the resulting report request, and renders the answer. It never returns an
// error: every failure collapses into the sanitized failure response.
func (s *QueryService) Interpret(ctx context.Context, queryText string) *models.QueryResponse {
	trimmed := strings.TrimSpace(queryText)
	if trimmed == "" {
		return s.fail("empty query", nil)
	}

	intent := classifyIntent(trimmed)
	entities := extractEntities(trimmed)
	confidence := scoreConfidence(intent, entities)

	var response *models.QueryResponse
	switch intent {
	case models.IntentAlertLookup:
		response = s.answerAlerts(ctx, entities, confidence)
	case models.IntentAttendanceLookup, models.IntentTrendRequest, models.IntentSummaryRequest:
		response = s.answerReport(ctx, intent, entities, confidence)
	default:
		response = s.askFallback(ctx, trimmed)
	}

	if err := validateResponse(response); err != nil {
		return s.fail("response validation failed", err)
	}
	if response.Success && s.metrics != nil {
		s.metrics.RecordQuery(true, string(response.Band))
	}
	return response
}

func (s *QueryService) fail(reason string, err error) *models.QueryResponse {
	s.logger.Warn("query interpretation failed", zap.String("reason", reason), zap.Error(err))
	if s.metrics != nil {
		s.metrics.RecordQuery(false, string(models.ConfidenceLow))
	}
	return &models.QueryResponse{
		Success:    false,
		Answer:     SanitizedFailureAnswer,
		Confidence: 0,
		Band:       models.ConfidenceLow,
	}
}

func (s *QueryService) answerReport(ctx context.Context, intent models.QueryIntent, entities models.QueryEntities, confidence float64) *models.QueryResponse {
	request := mapToRequest(intent, entities)
	result, err := s.reports.GenerateReport(ctx, request)
	if err != nil {
		return s.fail("report execution failed", err)
	}

	return &models.QueryResponse{
		Success:          true,
		Answer:           renderAnswer(intent, entities, result),
		Data:             result,
		SuggestedActions: suggestActions(intent, request),
		Confidence:       confidence,
		Band:             models.InterpretConfidence(confidence),
	}
}

func (s *QueryService) answerAlerts(ctx context.Context, entities models.QueryEntities, confidence float64) *models.QueryResponse {
	status := models.AlertStatusActive
	alerts, err := s.alerts.ListAlerts(ctx, repository.AlertFilter{Status: &status})
	if err != nil {
		return s.fail("alert lookup failed", err)
	}

	answerText := "There are no active attendance alerts right now."
	if len(alerts) == 1 {
		answerText = "There is 1 active attendance alert."
	} else if len(alerts) > 1 {
		answerText = fmt.Sprintf("There are %d active attendance alerts.", len(alerts))
	}

	return &models.QueryResponse{
		Success: true,
		Answer:  answerText,
		SuggestedActions: []models.SuggestedAction{
			{Type: "view-alerts", Label: "View active alerts"},
		},
		Confidence: confidence,
		Band:       models.InterpretConfidence(confidence),
	}
}

// classifyFallbackError tags a fallback failure with its pipeline failure
// code before it is logged: timeouts, undecodable replies, and remote API
// errors are distinguished there even though the caller only ever sees the
// sanitized answer.
func classifyFallbackError(err error) error {
	code := appErrors.CodeAPIError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.As(err, &netErr) && netErr.Timeout():
		code = appErrors.CodeTimeout
	case errors.Is(err, answer.ErrMalformedResponse):
		code = appErrors.CodeParsingError
	}
	return appErrors.Wrap(err, code, appErrors.ErrInternal.Status, "answer fallback failed")
}

// askFallback forwards an unmappable query to the external answering
// service when one is configured. Transport failures, exhausted retries,
// and malformed payloads all collapse into the sanitized answer.
func (s *QueryService) askFallback(ctx context.Context, queryText string) *models.QueryResponse {
	if s.fallback == nil {
		return s.fail("unmapped intent", nil)
	}
	reply, err := s.fallback.Ask(ctx, queryText)
	if err != nil {
		return s.fail("fallback answer service failed", classifyFallbackError(err))
	}
	if reply.Answer == "" {
		return s.fail("fallback answer missing", appErrors.Clone(appErrors.ErrValidation, appErrors.CodeMissingField))
	}
	confidence := reply.Confidence
	if confidence < 0 || confidence > 1 {
		return s.fail("fallback confidence out of range", appErrors.Clone(appErrors.ErrValidation, appErrors.CodeInvalidFormat))
	}
	return &models.QueryResponse{
		Success:    true,
		Answer:     reply.Answer,
		Confidence: confidence,
		Band:       models.InterpretConfidence(confidence),
	}
}

var dateISOPattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

func classifyIntent(queryText string) models.QueryIntent {
	lower := strings.ToLower(queryText)
	switch {
	case strings.Contains(lower, "alert") || strings.Contains(lower, "warning"):
		return models.IntentAlertLookup
	case strings.Contains(lower, "trend") || strings.Contains(lower, "improv") || strings.Contains(lower, "compared") || strings.Contains(lower, "getting better") || strings.Contains(lower, "getting worse"):
		return models.IntentTrendRequest
	case strings.Contains(lower, "summary") || strings.Contains(lower, "overview") || strings.Contains(lower, "overall") || strings.Contains(lower, "rate"):
		return models.IntentSummaryRequest
	case strings.Contains(lower, "absent") || strings.Contains(lower, "absence") || strings.Contains(lower, "late") || strings.Contains(lower, "tard") ||
		strings.Contains(lower, "present") || strings.Contains(lower, "excused") || strings.Contains(lower, "attendance") || strings.Contains(lower, "who"):
		return models.IntentAttendanceLookup
	default:
		return models.IntentUnknown
	}
}

// queryStopWords are capitalized tokens that never name a student.
var queryStopWords = map[string]struct{}{
	"who": {}, "show": {}, "what": {}, "how": {}, "give": {}, "list": {},
	"is": {}, "was": {}, "were": {}, "the": {}, "did": {}, "does": {},
	"can": {}, "tell": {}, "me": {}, "which": {}, "has": {}, "have": {},
	"attendance": {}, "absent": {}, "late": {}, "present": {}, "excused": {},
	"today": {}, "week": {}, "month": {}, "this": {}, "last": {},
	"summary": {}, "trend": {}, "trends": {}, "alert": {}, "alerts": {},
	"report": {}, "student": {}, "students": {}, "many": {}, "times": {},
}

func extractEntities(queryText string) models.QueryEntities {
	var entities models.QueryEntities
	lower := strings.ToLower(queryText)

	switch {
	case strings.Contains(lower, "absent") || strings.Contains(lower, "absence"):
		status := models.AttendanceStatusAbsent
		entities.Status = &status
	case strings.Contains(lower, "late") || strings.Contains(lower, "tard"):
		status := models.AttendanceStatusLate
		entities.Status = &status
	case strings.Contains(lower, "excused"):
		status := models.AttendanceStatusExcused
		entities.Status = &status
	case strings.Contains(lower, "present"):
		status := models.AttendanceStatusPresent
		entities.Status = &status
	}

	switch {
	case strings.Contains(lower, "today"):
		period := models.PeriodToday
		entities.Period = &period
	case strings.Contains(lower, "week"):
		period := models.PeriodWeek
		entities.Period = &period
	case strings.Contains(lower, "month"):
		period := models.PeriodMonth
		entities.Period = &period
	}

	if match := dateISOPattern.FindString(queryText); match != "" && models.IsDateISO(match) {
		date := match
		entities.Date = &date
	}

	tokens := strings.FieldsFunc(queryText, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	for i, token := range tokens {
		if number, err := strconv.Atoi(token); err == nil && entities.Date == nil {
			count := number
			entities.Count = &count
			continue
		}
		// Only mid-sentence capitalized tokens can name a student.
		if i == 0 || token[0] < 'A' || token[0] > 'Z' {
			continue
		}
		if _, stop := queryStopWords[strings.ToLower(token)]; stop {
			continue
		}
		name := token
		entities.LastName = &name
		break
	}

	return entities
}

// scoreConfidence counts how many of the slots an intent expects were
// filled unambiguously.
func scoreConfidence(intent models.QueryIntent, entities models.QueryEntities) float64 {
	if intent == models.IntentUnknown {
		return 0
	}
	expected, filled := 0, 0
	slot := func(present bool) {
		expected++
		if present {
			filled++
		}
	}
	switch intent {
	case models.IntentAttendanceLookup:
		slot(entities.Status != nil || entities.LastName != nil)
		slot(entities.Period != nil || entities.Date != nil)
	case models.IntentTrendRequest:
		slot(entities.Period != nil)
	case models.IntentSummaryRequest:
		slot(entities.Period != nil || entities.Date != nil)
	case models.IntentAlertLookup:
		slot(true)
	}
	if expected == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(filled)/float64(expected)
}

func mapToRequest(intent models.QueryIntent, entities models.QueryEntities) models.ReportRequest {
	request := models.ReportRequest{
		IncludeCount:      true,
		IncludePercentage: true,
		UseCache:          true,
	}
	if entities.LastName != nil {
		request.LastName = *entities.LastName
	}
	if entities.Status != nil {
		request.Status = entities.Status
	}
	if entities.Date != nil {
		request.Date = *entities.Date
	} else if entities.Period != nil {
		request.RelativePeriod = *entities.Period
	}
	if intent == models.IntentTrendRequest {
		request.IncludeTrends = true
	}
	return request
}

func renderAnswer(intent models.QueryIntent, entities models.QueryEntities, result *models.ReportResult) string {
	summary := result.Data.Summary
	scope := "all students"
	if entities.LastName != nil {
		scope = "student " + *entities.LastName
	}
	window := "on record"
	if entities.Date != nil {
		window = "on " + *entities.Date
	} else if entities.Period != nil {
		switch *entities.Period {
		case models.PeriodToday:
			window = "today"
		case models.PeriodWeek:
			window = "this week"
		case models.PeriodMonth:
			window = "this month"
		}
	}

	if intent == models.IntentTrendRequest && result.Data.Trend != nil {
		trend := result.Data.Trend
		switch trend.Direction {
		case models.TrendUp:
			return fmt.Sprintf("Attendance for %s is trending up: %.1f%% this period versus %.1f%% the period before.", scope, trend.CurrentRate, trend.PreviousRate)
		case models.TrendDown:
			return fmt.Sprintf("Attendance for %s is trending down: %.1f%% this period versus %.1f%% the period before.", scope, trend.CurrentRate, trend.PreviousRate)
		default:
			return fmt.Sprintf("Attendance for %s is holding steady at %.1f%%.", scope, trend.CurrentRate)
		}
	}

	if entities.Status != nil {
		count := 0
		switch *entities.Status {
		case models.AttendanceStatusPresent:
			count = summary.Present
		case models.AttendanceStatusLate:
			count = summary.Late
		case models.AttendanceStatusAbsent:
			count = summary.Absent
		case models.AttendanceStatusExcused:
			count = summary.Excused
		}
		return fmt.Sprintf("Found %d %s record(s) for %s %s.", count, strings.ToLower(string(*entities.Status)), scope, window)
	}

	answerText := fmt.Sprintf("Found %d attendance record(s) across %d student(s) for %s %s.", summary.TotalRecords, summary.TotalStudents, scope, window)
	if summary.PresentRate != "" {
		answerText += fmt.Sprintf(" Present rate: %s.", summary.PresentRate)
	}
	return answerText
}

func suggestActions(intent models.QueryIntent, request models.ReportRequest) []models.SuggestedAction {
	actions := []models.SuggestedAction{
		{Type: "export-report", Label: "Export this report", Params: map[string]string{"format": FormatCSV}},
	}
	if intent != models.IntentTrendRequest {
		actions = append(actions, models.SuggestedAction{Type: "view-trends", Label: "View attendance trends"})
	}
	if request.LastName != "" {
		actions = append(actions, models.SuggestedAction{
			Type:   "view-student",
			Label:  "View student history",
			Params: map[string]string{"last_name": request.LastName},
		})
	}
	return actions
}

// validateResponse checks the interpreter's answer envelope against its
// required shape before it leaves the service.
func validateResponse(response *models.QueryResponse) error {
	if response == nil || response.Answer == "" {
		return appErrors.Clone(appErrors.ErrValidation, appErrors.CodeMissingField)
	}
	if response.Confidence < 0 || response.Confidence > 1 {
		return appErrors.Clone(appErrors.ErrValidation, appErrors.CodeInvalidFormat)
	}
	for _, action := range response.SuggestedActions {
		if action.Type == "" || action.Label == "" {
			return appErrors.Clone(appErrors.ErrValidation, appErrors.CodeMissingField)
		}
	}
	return nil
}
