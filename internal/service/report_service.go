package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

type recordLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	ListDaysOff(ctx context.Context) ([]models.ScheduledDayOff, error)
}

type reportCache interface {
	GetReport(ctx context.Context, fingerprint string) (*models.ReportResult, error)
	SetReport(ctx context.Context, fingerprint string, result *models.ReportResult)
}

type reportMetrics interface {
	ObserveReport(reportType string, cacheHit bool, duration time.Duration)
}

// ReportService turns a structured request into an aggregated, cached
// result. Results are deterministic for a normalized request, so cache
// entries are keyed by a fingerprint of the normalized request.
type ReportService struct {
	records recordLister
	cache   reportCache
	metrics reportMetrics
	logger  *zap.Logger
	cfg     ReportServiceConfig
	now     func() time.Time
}

// ReportServiceConfig governs pagination bounds and trend sensitivity.
type ReportServiceConfig struct {
	TrendFlatBand float64
	DefaultLimit  int
	MaxLimit      int
}

// NewReportService constructs the report service.
func NewReportService(records recordLister, cache reportCache, metrics reportMetrics, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TrendFlatBand <= 0 {
		cfg.TrendFlatBand = 0.5
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 25
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &ReportService{
		records: records,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GenerateReport validates and normalizes the request, serves from cache on
// a fingerprint hit, and otherwise filters the record set and computes the
// requested aggregations. Pagination and sorting apply last, over the
// per-student rows only.
func (s *ReportService) GenerateReport(ctx context.Context, req models.ReportRequest) (*models.ReportResult, error) {
	started := s.now()

	normalized, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	fingerprint := fingerprintRequest(normalized)

	if normalized.UseCache && s.cache != nil {
		if cached, err := s.cache.GetReport(ctx, fingerprint); err == nil {
			cached.Metrics.CacheHit = true
			cached.Metrics.ExecutionTimeMs = s.now().Sub(started).Milliseconds()
			if s.metrics != nil {
				s.metrics.ObserveReport(string(cached.ReportType), true, s.now().Sub(started))
			}
			return cached, nil
		}
	}

	from, to, hasRange := s.resolveRange(normalized)
	filter := models.AttendanceFilter{
		LastName: normalized.LastName,
		Status:   normalized.Status,
	}
	if hasRange {
		filter.DateFrom = &from
		filter.DateTo = &to
	}

	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	var offDays map[string]struct{}
	if normalized.IncludePercentage || normalized.IncludeStreaks || normalized.IncludeTrends {
		daysOff, err := s.records.ListDaysOff(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduled days off")
		}
		offDays = make(map[string]struct{}, len(daysOff))
		for _, dayOff := range daysOff {
			offDays[dayOff.DateISO()] = struct{}{}
		}
	}

	result := &models.ReportResult{
		ReportType: classifyReport(normalized),
		Data: models.ReportData{
			Summary: s.summarize(records, normalized, offDays),
		},
	}

	rows := s.buildRows(records, normalized, offDays)
	if normalized.IncludeStreaks {
		result.Data.Streaks = s.computeStreaks(records, offDays)
	}
	if normalized.IncludeTrends && hasRange {
		trend, err := s.computeTrend(ctx, normalized, records, from, to, offDays)
		if err != nil {
			return nil, err
		}
		result.Data.Trend = trend
	}

	sortRows(rows, normalized.SortField, normalized.SortDirection)
	result.Data.Rows, result.Pagination = paginateRows(rows, normalized.Page, normalized.Limit)

	result.Metrics = models.ReportMetrics{
		ExecutionTimeMs: s.now().Sub(started).Milliseconds(),
		CacheHit:        false,
		QueryComplexity: classifyComplexity(normalized),
	}

	if s.cache != nil {
		s.cache.SetReport(ctx, fingerprint, result)
	}
	if s.metrics != nil {
		s.metrics.ObserveReport(string(result.ReportType), false, s.now().Sub(started))
	}
	return result, nil
}

// normalize fills defaults and rejects invalid filters before the request is
// fingerprinted, so equivalent requests share a cache entry.
func (s *ReportService) normalize(req models.ReportRequest) (models.ReportRequest, error) {
	req.LastName = strings.ToLower(strings.TrimSpace(req.LastName))
	if req.Status != nil && !req.Status.Valid() {
		return req, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status: "+string(*req.Status))
	}
	if req.Date != "" && !models.IsDateISO(req.Date) {
		return req, appErrors.Clone(appErrors.ErrInvalidDate, "invalid calendar date: "+req.Date)
	}
	if req.RelativePeriod != "" && !req.RelativePeriod.Valid() {
		return req, appErrors.Clone(appErrors.ErrValidation, "unknown relative period: "+string(req.RelativePeriod))
	}
	if req.IncludeTrends && req.Date == "" && req.RelativePeriod == "" {
		req.RelativePeriod = models.PeriodMonth
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.DefaultLimit
	}
	if req.Limit > s.cfg.MaxLimit {
		req.Limit = s.cfg.MaxLimit
	}
	if req.SortField == "" {
		req.SortField = "student_id"
	}
	if !validSortField(req.SortField) {
		return req, appErrors.Clone(appErrors.ErrValidation, "unsupported sort field: "+req.SortField)
	}
	if req.SortDirection == "" {
		req.SortDirection = models.SortAsc
	}
	if req.SortDirection != models.SortAsc && req.SortDirection != models.SortDesc {
		return req, appErrors.Clone(appErrors.ErrValidation, "unsupported sort direction: "+string(req.SortDirection))
	}
	return req, nil
}

// fingerprintRequest hashes the normalized request with its fields in a
// fixed sorted order.
func fingerprintRequest(req models.ReportRequest) string {
	fields := map[string]string{
		"last_name": req.LastName,
		"date":      req.Date,
		"period":    string(req.RelativePeriod),
		"count":     strconv.FormatBool(req.IncludeCount),
		"pct":       strconv.FormatBool(req.IncludePercentage),
		"streaks":   strconv.FormatBool(req.IncludeStreaks),
		"trends":    strconv.FormatBool(req.IncludeTrends),
		"page":      strconv.Itoa(req.Page),
		"limit":     strconv.Itoa(req.Limit),
		"sort":      req.SortField,
		"dir":       string(req.SortDirection),
	}
	if req.Status != nil {
		fields["status"] = string(*req.Status)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(fields[key])
		builder.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}

// resolveRange converts an explicit date or relative period into a concrete
// inclusive date range. "today" is the current date only, "week" the current
// ISO week, "month" the current calendar month.
func (s *ReportService) resolveRange(req models.ReportRequest) (time.Time, time.Time, bool) {
	if req.Date != "" {
		date, err := models.ParseDateISO(req.Date)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return date, date, true
	}
	if req.RelativePeriod == "" {
		return time.Time{}, time.Time{}, false
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch req.RelativePeriod {
	case models.PeriodToday:
		return today, today, true
	case models.PeriodWeek:
		offset := int(today.Weekday()+6) % 7
		monday := today.AddDate(0, 0, -offset)
		return monday, monday.AddDate(0, 0, 6), true
	case models.PeriodMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 1, -1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func classifyReport(req models.ReportRequest) models.ReportType {
	switch {
	case req.IncludeTrends:
		return models.ReportTypeTrend
	case req.IncludeStreaks || req.LastName != "":
		return models.ReportTypeAttendance
	default:
		return models.ReportTypeSummary
	}
}

func classifyComplexity(req models.ReportRequest) models.QueryComplexity {
	switch {
	case req.IncludeTrends:
		return models.ComplexityComplex
	case req.IncludeStreaks || req.IncludePercentage:
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

// summarize tallies records per status. Records dated on a scheduled day
// off stay in the tallies but are excluded from attendance-rate numerators
// and denominators.
func (s *ReportService) summarize(records []models.AttendanceRecord, req models.ReportRequest, offDays map[string]struct{}) models.ReportSummary {
	summary := models.ReportSummary{TotalRecords: len(records)}
	students := make(map[string]struct{})
	ratedPresent, ratedTotal := 0, 0
	for _, record := range records {
		students[record.StudentID] = struct{}{}
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusExcused:
			summary.Excused++
		}
		if _, off := offDays[record.DateISO()]; off {
			continue
		}
		ratedTotal++
		if record.Status == models.AttendanceStatusPresent {
			ratedPresent++
		}
	}
	summary.TotalStudents = len(students)
	if req.IncludePercentage {
		summary.PresentRate = FormatAttendancePercentage(float64(ratedPresent), float64(ratedTotal))
	}
	return summary
}

func (s *ReportService) buildRows(records []models.AttendanceRecord, req models.ReportRequest, offDays map[string]struct{}) []models.StudentReportRow {
	byStudent := make(map[string]*models.StudentReportRow)
	ratedPresent := make(map[string]int)
	ratedTotal := make(map[string]int)
	for _, record := range records {
		row, ok := byStudent[record.StudentID]
		if !ok {
			row = &models.StudentReportRow{StudentID: record.StudentID, LastName: record.LastName}
			byStudent[record.StudentID] = row
		}
		row.Total++
		switch record.Status {
		case models.AttendanceStatusPresent:
			row.Present++
		case models.AttendanceStatusLate:
			row.Late++
		case models.AttendanceStatusAbsent:
			row.Absent++
		case models.AttendanceStatusExcused:
			row.Excused++
		}
		if _, off := offDays[record.DateISO()]; off {
			continue
		}
		ratedTotal[record.StudentID]++
		if record.Status == models.AttendanceStatusPresent {
			ratedPresent[record.StudentID]++
		}
	}
	rows := make([]models.StudentReportRow, 0, len(byStudent))
	for studentID, row := range byStudent {
		if req.IncludePercentage {
			row.PresentRate = FormatAttendancePercentage(float64(ratedPresent[studentID]), float64(ratedTotal[studentID]))
		}
		rows = append(rows, *row)
	}
	return rows
}

// computeStreaks finds each student's longest and current run of
// consecutive-day absences. Weekends and scheduled days off between two
// absences do not break a run.
func (s *ReportService) computeStreaks(records []models.AttendanceRecord, offDays map[string]struct{}) []models.StreakSummary {
	isSchoolDay := func(day time.Time) bool {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			return false
		}
		_, off := offDays[day.Format("2006-01-02")]
		return !off
	}

	absences := make(map[string][]time.Time)
	for _, record := range records {
		if record.Status == models.AttendanceStatusAbsent {
			absences[record.StudentID] = append(absences[record.StudentID], record.Date)
		}
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	studentIDs := make([]string, 0, len(absences))
	for studentID := range absences {
		studentIDs = append(studentIDs, studentID)
	}
	sort.Strings(studentIDs)

	streaks := make([]models.StreakSummary, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		dates := absences[studentID]
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		longest, run := 0, 0
		var prev time.Time
		for i, date := range dates {
			if i == 0 || !contiguous(prev, date, isSchoolDay) {
				run = 1
			} else {
				run++
			}
			if run > longest {
				longest = run
			}
			prev = date
		}

		current := 0
		if len(dates) > 0 && contiguous(dates[len(dates)-1], today, isSchoolDay) {
			current = run
		}
		streaks = append(streaks, models.StreakSummary{StudentID: studentID, Longest: longest, Current: current})
	}
	return streaks
}

// contiguous reports whether no school day lies strictly between from and to.
func contiguous(from, to time.Time, isSchoolDay func(time.Time) bool) bool {
	for day := from.AddDate(0, 0, 1); day.Before(to); day = day.AddDate(0, 0, 1) {
		if isSchoolDay(day) {
			return false
		}
	}
	return true
}

// computeTrend compares the current period's present rate against the
// immediately preceding period of equal length.
func (s *ReportService) computeTrend(ctx context.Context, req models.ReportRequest, current []models.AttendanceRecord, from, to time.Time, offDays map[string]struct{}) (*models.TrendSummary, error) {
	length := int(to.Sub(from).Hours()/24) + 1
	prevTo := from.AddDate(0, 0, -1)
	prevFrom := prevTo.AddDate(0, 0, -(length - 1))

	previous, err := s.records.List(ctx, models.AttendanceFilter{
		LastName: req.LastName,
		DateFrom: &prevFrom,
		DateTo:   &prevTo,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous period records")
	}

	currentRate := presentRate(current, offDays)
	previousRate := presentRate(previous, offDays)
	delta := currentRate - previousRate

	direction := models.TrendFlat
	if delta > s.cfg.TrendFlatBand {
		direction = models.TrendUp
	} else if delta < -s.cfg.TrendFlatBand {
		direction = models.TrendDown
	}

	return &models.TrendSummary{
		CurrentRate:  math.Round(currentRate*10) / 10,
		PreviousRate: math.Round(previousRate*10) / 10,
		DeltaPoints:  math.Round(delta*10) / 10,
		Direction:    direction,
	}, nil
}

func presentRate(records []models.AttendanceRecord, offDays map[string]struct{}) float64 {
	present, total := 0, 0
	for _, record := range records {
		if _, off := offDays[record.DateISO()]; off {
			continue
		}
		total++
		if record.Status == models.AttendanceStatusPresent {
			present++
		}
	}
	if total == 0 {
		return 0
	}
	rate := float64(present) / float64(total) * 100
	if rate > 100 {
		rate = 100
	}
	return rate
}

// FormatAttendancePercentage renders present/total as a percentage string
// rounded to one decimal place with a trailing ".0" suppressed. Zero or
// negative totals yield "0%", values over 100 clamp to "100%".
func FormatAttendancePercentage(present, total float64) string {
	if total <= 0 || present <= 0 {
		return "0%"
	}
	pct := present / total * 100
	if pct > 100 {
		pct = 100
	}
	rounded := math.Round(pct*10) / 10
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%.0f%%", rounded)
	}
	return fmt.Sprintf("%.1f%%", rounded)
}

func validSortField(field string) bool {
	switch field {
	case "student_id", "last_name", "total", "present", "late", "absent", "excused":
		return true
	default:
		return false
	}
}

func sortRows(rows []models.StudentReportRow, field string, direction models.SortDirection) {
	less := func(a, b models.StudentReportRow) bool {
		switch field {
		case "last_name":
			if a.LastName != b.LastName {
				return a.LastName < b.LastName
			}
		case "total":
			if a.Total != b.Total {
				return a.Total < b.Total
			}
		case "present":
			if a.Present != b.Present {
				return a.Present < b.Present
			}
		case "late":
			if a.Late != b.Late {
				return a.Late < b.Late
			}
		case "absent":
			if a.Absent != b.Absent {
				return a.Absent < b.Absent
			}
		case "excused":
			if a.Excused != b.Excused {
				return a.Excused < b.Excused
			}
		}
		return a.StudentID < b.StudentID
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if direction == models.SortDesc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func paginateRows(rows []models.StudentReportRow, page, limit int) ([]models.StudentReportRow, *models.Pagination) {
	pagination := &models.Pagination{Page: page, PageSize: limit, TotalCount: len(rows)}
	start := (page - 1) * limit
	if start >= len(rows) {
		return nil, pagination
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], pagination
}
