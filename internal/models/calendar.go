package models

import (
	"time"

	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

// DayOffReason classifies why a school day was taken off the calendar.
type DayOffReason string

const (
	DayOffHoliday                 DayOffReason = "HOLIDAY"
	DayOffProfessionalDevelopment DayOffReason = "PROFESSIONAL_DEVELOPMENT"
	DayOffReportCardConferences   DayOffReason = "REPORT_CARD_CONFERENCES"
	DayOffOther                   DayOffReason = "OTHER"
)

// Valid returns true when the reason is a supported value.
func (r DayOffReason) Valid() bool {
	switch r {
	case DayOffHoliday, DayOffProfessionalDevelopment, DayOffReportCardConferences, DayOffOther:
		return true
	default:
		return false
	}
}

// DayOffScopeAll is the only scope currently supported: the day off applies
// to every student.
const DayOffScopeAll = "all"

// ScheduledDayOff excludes a date from attendance-rate denominators and seeds
// bulk EXCUSED record generation.
type ScheduledDayOff struct {
	ID        string       `db:"id" json:"id"`
	Date      time.Time    `db:"date" json:"date"`
	Reason    DayOffReason `db:"reason" json:"reason"`
	Scope     string       `db:"scope" json:"scope"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// NewScheduledDayOff validates and constructs a scheduled day off.
func NewScheduledDayOff(dateISO string, reason DayOffReason) (*ScheduledDayOff, error) {
	if !reason.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown day-off reason: "+string(reason))
	}
	date, err := ParseDateISO(dateISO)
	if err != nil {
		return nil, err
	}
	return &ScheduledDayOff{Date: date, Reason: reason, Scope: DayOffScopeAll}, nil
}

// DateISO returns the day-off date in strict Y-M-D form.
func (d *ScheduledDayOff) DateISO() string {
	return d.Date.Format(dateLayout)
}
