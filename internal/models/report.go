package models

// RelativePeriod names a date range anchored on the current day.
type RelativePeriod string

const (
	PeriodToday RelativePeriod = "today"
	PeriodWeek  RelativePeriod = "week"
	PeriodMonth RelativePeriod = "month"
)

// Valid returns true when the relative period is a supported value.
func (p RelativePeriod) Valid() bool {
	return p == PeriodToday || p == PeriodWeek || p == PeriodMonth
}

// SortDirection orders report rows.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ReportRequest describes a structured report query. Filters narrow the
// record set; aggregation flags select what is computed over it.
type ReportRequest struct {
	LastName       string            `json:"last_name,omitempty"`
	Status         *AttendanceStatus `json:"status,omitempty"`
	Date           string            `json:"date,omitempty"`
	RelativePeriod RelativePeriod    `json:"relative_period,omitempty"`

	IncludeCount      bool `json:"include_count"`
	IncludePercentage bool `json:"include_percentage"`
	IncludeStreaks    bool `json:"include_streaks"`
	IncludeTrends     bool `json:"include_trends"`

	Page          int           `json:"page,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	SortField     string        `json:"sort_field,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`

	UseCache bool `json:"use_cache"`
}

// ReportType tags the shape of a generated report.
type ReportType string

const (
	ReportTypeAttendance ReportType = "attendance"
	ReportTypeTrend      ReportType = "trend"
	ReportTypeSummary    ReportType = "summary"
)

// QueryComplexity is a coarse cost tag attached to report metrics.
type QueryComplexity string

const (
	ComplexitySimple   QueryComplexity = "simple"
	ComplexityModerate QueryComplexity = "moderate"
	ComplexityComplex  QueryComplexity = "complex"
)

// ReportSummary aggregates a filtered record set.
type ReportSummary struct {
	TotalRecords  int    `json:"total_records"`
	TotalStudents int    `json:"total_students"`
	Present       int    `json:"present"`
	Late          int    `json:"late"`
	Absent        int    `json:"absent"`
	Excused       int    `json:"excused"`
	PresentRate   string `json:"present_rate,omitempty"`
}

// StudentReportRow is the per-student breakdown that pagination and sorting
// apply to.
type StudentReportRow struct {
	StudentID   string `json:"student_id"`
	LastName    string `json:"last_name,omitempty"`
	Total       int    `json:"total"`
	Present     int    `json:"present"`
	Late        int    `json:"late"`
	Absent      int    `json:"absent"`
	Excused     int    `json:"excused"`
	PresentRate string `json:"present_rate,omitempty"`
}

// StreakSummary captures consecutive-day absence runs for one student.
// Weekends and scheduled days off do not break a run.
type StreakSummary struct {
	StudentID string `json:"student_id"`
	Longest   int    `json:"longest"`
	Current   int    `json:"current"`
}

// TrendDirection compares the current period to the one before it.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// TrendSummary compares the current period aggregate to the immediately
// preceding period of equal length.
type TrendSummary struct {
	CurrentRate  float64        `json:"current_rate"`
	PreviousRate float64        `json:"previous_rate"`
	DeltaPoints  float64        `json:"delta_points"`
	Direction    TrendDirection `json:"direction"`
}

// ReportData bundles everything a report computed.
type ReportData struct {
	Summary ReportSummary      `json:"summary"`
	Rows    []StudentReportRow `json:"rows,omitempty"`
	Streaks []StreakSummary    `json:"streaks,omitempty"`
	Trend   *TrendSummary      `json:"trend,omitempty"`
}

// ReportMetrics describes how the result was produced.
type ReportMetrics struct {
	ExecutionTimeMs int64           `json:"execution_time_ms"`
	CacheHit        bool            `json:"cache_hit"`
	QueryComplexity QueryComplexity `json:"query_complexity"`
}

// ReportResult is the cached unit of report computation.
type ReportResult struct {
	ReportType ReportType    `json:"report_type"`
	Data       ReportData    `json:"data"`
	Metrics    ReportMetrics `json:"metrics"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}
