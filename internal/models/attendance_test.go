package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

func TestIsDateISO(t *testing.T) {
	assert.True(t, IsDateISO("2025-02-28"))
	assert.False(t, IsDateISO("2025-02-30"))
	assert.False(t, IsDateISO("25-2-28"))
	assert.False(t, IsDateISO("2025-13-01"))
	assert.False(t, IsDateISO("2025-02-28T00:00:00Z"))
	assert.False(t, IsDateISO(""))
	assert.True(t, IsDateISO("2024-02-29"))
	assert.False(t, IsDateISO("2025-02-29"))
}

func TestNewAttendanceRecordRejectsFlagsOnExcusedAndAbsent(t *testing.T) {
	for _, status := range []AttendanceStatus{AttendanceStatusExcused, AttendanceStatusAbsent} {
		_, err := NewAttendanceRecord("s1", "2025-03-10", status, true, false)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrDomainValidation.Code, appErr.Code)

		_, err = NewAttendanceRecord("s1", "2025-03-10", status, false, true)
		require.Error(t, err)
	}
}

func TestNewAttendanceRecordLateStatusForcesLateFlag(t *testing.T) {
	for _, lateInput := range []bool{true, false} {
		record, err := NewAttendanceRecord("s1", "2025-03-10", AttendanceStatusLate, lateInput, false)
		require.NoError(t, err)
		assert.True(t, record.Late)
		assert.False(t, record.OnTime)
		assert.False(t, record.Excused)
	}
}

func TestNewAttendanceRecordPresentPreservesFlags(t *testing.T) {
	record, err := NewAttendanceRecord("s1", "2025-03-10", AttendanceStatusPresent, true, true)
	require.NoError(t, err)
	assert.True(t, record.Late)
	assert.True(t, record.EarlyDismissal)
	assert.False(t, record.OnTime)

	record, err = NewAttendanceRecord("s1", "2025-03-10", AttendanceStatusPresent, false, false)
	require.NoError(t, err)
	assert.True(t, record.OnTime)
}

func TestNewAttendanceRecordDerivedFields(t *testing.T) {
	record, err := NewAttendanceRecord("s1", "2025-03-10", AttendanceStatusExcused, false, false)
	require.NoError(t, err)
	assert.True(t, record.Excused)
	assert.False(t, record.OnTime)

	record, err = NewAttendanceRecord("s1", "2025-03-10", AttendanceStatusAbsent, false, false)
	require.NoError(t, err)
	assert.False(t, record.Excused)
	assert.False(t, record.OnTime)
}

func TestNewAttendanceRecordRejectsBadInput(t *testing.T) {
	_, err := NewAttendanceRecord("", "2025-03-10", AttendanceStatusPresent, false, false)
	assert.Error(t, err)

	_, err = NewAttendanceRecord("s1", "2025-02-30", AttendanceStatusPresent, false, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDate.Code, appErrors.FromError(err).Code)

	_, err = NewAttendanceRecord("s1", "2025-03-10", AttendanceStatus("NAPPING"), false, false)
	assert.Error(t, err)
}

func TestNewScheduledDayOff(t *testing.T) {
	dayOff, err := NewScheduledDayOff("2025-12-25", DayOffHoliday)
	require.NoError(t, err)
	assert.Equal(t, DayOffScopeAll, dayOff.Scope)
	assert.Equal(t, "2025-12-25", dayOff.DateISO())

	_, err = NewScheduledDayOff("2025-12-25", DayOffReason("SNOW"))
	assert.Error(t, err)

	_, err = NewScheduledDayOff("2025-13-25", DayOffHoliday)
	assert.Error(t, err)
}

func TestNewAlertThresholdValidation(t *testing.T) {
	threshold, err := NewAlertThreshold(ThresholdTypeAbsence, 5, PeriodThirtyDays, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "*", threshold.ScopeKey())

	studentID := "s1"
	scoped, err := NewAlertThreshold(ThresholdTypeLateness, 3, PeriodCumulative, &studentID, false)
	require.NoError(t, err)
	assert.Equal(t, "s1", scoped.ScopeKey())

	_, err = NewAlertThreshold(ThresholdTypeAbsence, 0, PeriodThirtyDays, nil, true)
	assert.Error(t, err)

	empty := ""
	_, err = NewAlertThreshold(ThresholdTypeAbsence, 5, PeriodThirtyDays, &empty, true)
	assert.Error(t, err)

	_, err = NewAlertThreshold(ThresholdType("DETENTION"), 5, PeriodThirtyDays, nil, true)
	assert.Error(t, err)
}

func TestAlertThresholdApplyUpdate(t *testing.T) {
	threshold, err := NewAlertThreshold(ThresholdTypeAbsence, 5, PeriodThirtyDays, nil, false)
	require.NoError(t, err)
	before := threshold.UpdatedAt

	count := 8
	notify := true
	require.NoError(t, threshold.ApplyUpdate(&count, &notify))
	assert.Equal(t, 8, threshold.Count)
	assert.True(t, threshold.NotifyParents)
	assert.False(t, threshold.UpdatedAt.Before(before))

	invalid := -1
	assert.Error(t, threshold.ApplyUpdate(&invalid, nil))
}
