package models

// QueryIntent is the fixed set of question shapes the interpreter maps to.
type QueryIntent string

const (
	IntentAttendanceLookup QueryIntent = "attendance-lookup"
	IntentTrendRequest     QueryIntent = "trend-request"
	IntentSummaryRequest   QueryIntent = "summary-request"
	IntentAlertLookup      QueryIntent = "alert-lookup"
	IntentUnknown          QueryIntent = "unknown"
)

// QueryEntities holds the typed slots extracted from a free-text question.
// Each slot is either filled unambiguously or nil; confidence scoring counts
// the filled slots an intent expects.
type QueryEntities struct {
	LastName    *string           `json:"last_name,omitempty"`
	Period      *RelativePeriod   `json:"period,omitempty"`
	Date        *string           `json:"date,omitempty"`
	Status      *AttendanceStatus `json:"status,omitempty"`
	Count       *int              `json:"count,omitempty"`
}

// ConfidenceBand buckets a 0-1 confidence score.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "HIGH"
	ConfidenceMedium ConfidenceBand = "MEDIUM"
	ConfidenceLow    ConfidenceBand = "LOW"
)

// InterpretConfidence buckets a raw confidence score.
func InterpretConfidence(score float64) ConfidenceBand {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// SuggestedAction is a follow-up the UI can offer after an answer.
type SuggestedAction struct {
	Type   string            `json:"type"`
	Label  string            `json:"label"`
	Params map[string]string `json:"params,omitempty"`
}

// QueryResponse is the interpreter's answer envelope. On any failure the
// interpreter returns the sanitized fallback answer with Success=false and
// Confidence 0; raw errors are logged, never surfaced here.
type QueryResponse struct {
	Success          bool              `json:"success"`
	Answer           string            `json:"answer"`
	Data             *ReportResult     `json:"data,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggestedActions,omitempty"`
	Confidence       float64           `json:"confidence"`
	Band             ConfidenceBand    `json:"confidence_band,omitempty"`
}
