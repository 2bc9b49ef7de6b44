package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/pkg/jobs"
)

type fakeRecordStore struct {
	saved   []models.AttendanceRecord
	daysOff []models.ScheduledDayOff
	ids     []string
}

func (f *fakeRecordStore) Save(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = "rec-1"
	}
	f.saved = append(f.saved, *record)
	return record, nil
}

func (f *fakeRecordStore) List(context.Context, models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	return f.saved, nil
}

func (f *fakeRecordStore) StudentIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func (f *fakeRecordStore) SaveDayOff(_ context.Context, dayOff *models.ScheduledDayOff) (*models.ScheduledDayOff, error) {
	if dayOff.ID == "" {
		dayOff.ID = "day-1"
	}
	if dayOff.CreatedAt.IsZero() {
		dayOff.CreatedAt = time.Now().UTC()
	}
	f.daysOff = append(f.daysOff, *dayOff)
	return dayOff, nil
}

func (f *fakeRecordStore) ListDaysOff(context.Context) ([]models.ScheduledDayOff, error) {
	return f.daysOff, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateReports(context.Context) error {
	f.calls++
	return nil
}

type fakeQueue struct {
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func TestRecordAttendanceInvalidatesAndEnqueues(t *testing.T) {
	store := &fakeRecordStore{}
	invalidator := &fakeInvalidator{}
	queue := &fakeQueue{}
	svc := NewAttendanceService(store, invalidator, queue, nil)

	record, err := svc.RecordAttendance(context.Background(), "s1", "Nguyen", "2025-03-10", models.AttendanceStatusLate, false, false)
	require.NoError(t, err)

	assert.True(t, record.Late)
	assert.Equal(t, "Nguyen", record.LastName)
	assert.Equal(t, 1, invalidator.calls)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeEvaluateAlerts, queue.jobs[0].Type)
}

func TestRecordAttendanceRejectsInvalid(t *testing.T) {
	store := &fakeRecordStore{}
	invalidator := &fakeInvalidator{}
	svc := NewAttendanceService(store, invalidator, &fakeQueue{}, nil)

	_, err := svc.RecordAttendance(context.Background(), "s1", "", "2025-03-10", models.AttendanceStatusAbsent, true, false)
	require.Error(t, err)
	assert.Empty(t, store.saved)
	assert.Zero(t, invalidator.calls)

	_, err = svc.RecordAttendance(context.Background(), "s1", "", "2025-02-30", models.AttendanceStatusPresent, false, false)
	require.Error(t, err)
}

func TestScheduleDayOffGeneratesExcusedRecords(t *testing.T) {
	store := &fakeRecordStore{ids: []string{"s1", "s2", "s3"}}
	invalidator := &fakeInvalidator{}
	queue := &fakeQueue{}
	svc := NewAttendanceService(store, invalidator, queue, nil)

	dayOff, err := svc.ScheduleDayOff(context.Background(), "2025-12-25", models.DayOffHoliday)
	require.NoError(t, err)

	assert.Equal(t, models.DayOffHoliday, dayOff.Reason)
	assert.Equal(t, models.DayOffScopeAll, dayOff.Scope)
	require.Len(t, store.saved, 3)
	for _, record := range store.saved {
		assert.Equal(t, models.AttendanceStatusExcused, record.Status)
		assert.True(t, record.Excused)
		assert.Equal(t, "2025-12-25", record.DateISO())
	}
	assert.Equal(t, 1, invalidator.calls)
	assert.Len(t, queue.jobs, 1)
}
