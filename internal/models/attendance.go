package models

import (
	"time"

	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

const dateLayout = "2006-01-02"

// IsDateISO reports whether raw is a strict Y-M-D string naming a real
// calendar date. The parsed date must re-serialize to the exact input, which
// rejects both malformed strings ("25-2-28") and syntactically valid dates
// that do not exist on the calendar ("2025-02-30").
func IsDateISO(raw string) bool {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return false
	}
	return parsed.Format(dateLayout) == raw
}

// ParseDateISO converts a strict Y-M-D string into a UTC calendar date.
func ParseDateISO(raw string) (time.Time, error) {
	if !IsDateISO(raw) {
		return time.Time{}, appErrors.Clone(appErrors.ErrInvalidDate, "invalid calendar date: "+raw)
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidDate.Code, appErrors.ErrInvalidDate.Status, "invalid calendar date: "+raw)
	}
	return parsed, nil
}

// AttendanceRecord is one student's attendance fact for one calendar day.
// Records are immutable once constructed; a correction is a new record
// replacing the old one.
type AttendanceRecord struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	LastName       string           `db:"last_name" json:"last_name,omitempty"`
	Date           time.Time        `db:"date" json:"date"`
	Status         AttendanceStatus `db:"status" json:"status"`
	Late           bool             `db:"late" json:"late"`
	EarlyDismissal bool             `db:"early_dismissal" json:"early_dismissal"`
	OnTime         bool             `db:"on_time" json:"on_time"`
	Excused        bool             `db:"excused" json:"excused"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// NewAttendanceRecord validates raw field values and returns an immutable
// record, or fails without producing a partial object.
func NewAttendanceRecord(studentID, dateISO string, status AttendanceStatus, late, earlyDismissal bool) (*AttendanceRecord, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "student id must not be empty")
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown attendance status: "+string(status))
	}
	date, err := ParseDateISO(dateISO)
	if err != nil {
		return nil, err
	}

	switch status {
	case AttendanceStatusExcused, AttendanceStatusAbsent:
		if late {
			return nil, appErrors.Clone(appErrors.ErrDomainValidation, string(status)+" record cannot be marked late")
		}
		if earlyDismissal {
			return nil, appErrors.Clone(appErrors.ErrDomainValidation, string(status)+" record cannot have an early dismissal")
		}
	case AttendanceStatusLate:
		late = true
	}

	record := &AttendanceRecord{
		StudentID:      studentID,
		Date:           date,
		Status:         status,
		Late:           late,
		EarlyDismissal: earlyDismissal,
	}
	record.OnTime = (status == AttendanceStatusPresent || status == AttendanceStatusLate) && !late
	record.Excused = status == AttendanceStatusExcused
	return record, nil
}

// DateISO returns the record date in strict Y-M-D form.
func (r *AttendanceRecord) DateISO() string {
	return r.Date.Format(dateLayout)
}

// AttendanceFilter scopes record queries.
type AttendanceFilter struct {
	StudentID string
	LastName  string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
}

// Pagination describes page metadata returned alongside list payloads.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
