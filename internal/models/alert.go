package models

import (
	"time"

	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

// ThresholdType identifies which attendance facts a threshold counts.
type ThresholdType string

const (
	ThresholdTypeAbsence    ThresholdType = "ABSENCE"
	ThresholdTypeLateness   ThresholdType = "LATENESS"
	ThresholdTypeCumulative ThresholdType = "CUMULATIVE"
)

// Valid returns true when the type is a supported value.
func (t ThresholdType) Valid() bool {
	switch t {
	case ThresholdTypeAbsence, ThresholdTypeLateness, ThresholdTypeCumulative:
		return true
	default:
		return false
	}
}

// ThresholdPeriod selects the counting window for a threshold.
type ThresholdPeriod string

const (
	PeriodThirtyDays ThresholdPeriod = "THIRTY_DAYS"
	PeriodCumulative ThresholdPeriod = "CUMULATIVE"
)

// Valid returns true when the period is a supported value.
func (p ThresholdPeriod) Valid() bool {
	return p == PeriodThirtyDays || p == PeriodCumulative
}

// AlertThreshold is a rule that raises alerts when a student's count of
// matching attendance facts reaches Count. A nil StudentID applies the rule
// to every student independently.
type AlertThreshold struct {
	ID            string          `db:"id" json:"id"`
	Type          ThresholdType   `db:"type" json:"type"`
	Count         int             `db:"count" json:"count"`
	Period        ThresholdPeriod `db:"period" json:"period"`
	StudentID     *string         `db:"student_id" json:"student_id,omitempty"`
	NotifyParents bool            `db:"notify_parents" json:"notify_parents"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAlertThreshold validates and constructs a threshold rule.
func NewAlertThreshold(thresholdType ThresholdType, count int, period ThresholdPeriod, studentID *string, notifyParents bool) (*AlertThreshold, error) {
	if !thresholdType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown threshold type: "+string(thresholdType))
	}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown threshold period: "+string(period))
	}
	if count <= 0 {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "threshold count must be positive")
	}
	if studentID != nil && *studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "student id must not be empty when scoped")
	}
	now := time.Now().UTC()
	return &AlertThreshold{
		Type:          thresholdType,
		Count:         count,
		Period:        period,
		StudentID:     studentID,
		NotifyParents: notifyParents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyUpdate mutates count and notifyParents in place, refreshing UpdatedAt.
func (t *AlertThreshold) ApplyUpdate(count *int, notifyParents *bool) error {
	if count != nil {
		if *count <= 0 {
			return appErrors.Clone(appErrors.ErrDomainValidation, "threshold count must be positive")
		}
		t.Count = *count
	}
	if notifyParents != nil {
		t.NotifyParents = *notifyParents
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// ScopeKey canonicalises the student scope for conflict comparison.
func (t *AlertThreshold) ScopeKey() string {
	if t.StudentID == nil {
		return "*"
	}
	return *t.StudentID
}

// AlertStatus is the lifecycle state of a triggered alert.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// AttendanceAlert is a triggered instance of a threshold rule. Alerts are
// dismissed explicitly, never auto-deleted.
type AttendanceAlert struct {
	ID             string          `db:"id" json:"id"`
	ThresholdID    string          `db:"threshold_id" json:"threshold_id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	Type           ThresholdType   `db:"type" json:"type"`
	CurrentCount   int             `db:"current_count" json:"current_count"`
	ThresholdCount int             `db:"threshold_count" json:"threshold_count"`
	Period         ThresholdPeriod `db:"period" json:"period"`
	Status         AlertStatus     `db:"status" json:"status"`
	Dismissable    bool            `db:"dismissable" json:"dismissable"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	DismissedAt    *time.Time      `db:"dismissed_at" json:"dismissed_at,omitempty"`
}

// ConflictKind classifies how two thresholds interfere.
type ConflictKind string

const (
	ConflictDuplicate     ConflictKind = "duplicate"
	ConflictOverlapping   ConflictKind = "overlapping"
	ConflictContradictory ConflictKind = "contradictory"
)

// ConflictSeverity decides whether a conflict blocks the write.
type ConflictSeverity string

const (
	SeverityError   ConflictSeverity = "error"
	SeverityWarning ConflictSeverity = "warning"
)

// ThresholdConflict reports two interfering threshold rules.
type ThresholdConflict struct {
	Kind       ConflictKind     `json:"kind"`
	Severity   ConflictSeverity `json:"severity"`
	FirstID    string           `json:"first_id"`
	SecondID   string           `json:"second_id"`
	Resolution string           `json:"resolution,omitempty"`
}

// ThresholdEffectiveness accumulates outcome statistics per threshold.
type ThresholdEffectiveness struct {
	ThresholdID             string  `json:"threshold_id"`
	AlertsTriggered         int     `json:"alerts_triggered"`
	FalsePositives          int     `json:"false_positives"`
	InterventionsSuccessful int     `json:"interventions_successful"`
	AverageResolutionDays   float64 `json:"average_resolution_days"`
}

// ThresholdComparison proposes a candidate threshold setting together with
// the alert delta a replay of historical counts predicts.
type ThresholdComparison struct {
	ThresholdID    string          `json:"threshold_id"`
	CurrentCount   int             `json:"current_count"`
	ProposedCount  int             `json:"proposed_count"`
	CurrentPeriod  ThresholdPeriod `json:"current_period"`
	ProposedPeriod ThresholdPeriod `json:"proposed_period"`
	AlertsGained   int             `json:"alerts_gained"`
	AlertsLost     int             `json:"alerts_lost"`
	Recommendation string          `json:"recommendation"`
}
