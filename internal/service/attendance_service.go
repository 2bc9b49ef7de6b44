package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
	"github.com/noah-isme/attendance-insight-api/pkg/jobs"
)

// JobTypeEvaluateAlerts names the queued job that re-runs threshold
// evaluation after an attendance mutation.
const JobTypeEvaluateAlerts = "evaluate_alerts"

type recordStore interface {
	Save(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	StudentIDs(ctx context.Context) ([]string, error)
	SaveDayOff(ctx context.Context, dayOff *models.ScheduledDayOff) (*models.ScheduledDayOff, error)
	ListDaysOff(ctx context.Context) ([]models.ScheduledDayOff, error)
}

type reportInvalidator interface {
	InvalidateReports(ctx context.Context) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// AttendanceService owns the attendance write path. Every mutation flushes
// the report cache and queues a threshold evaluation.
type AttendanceService struct {
	store  recordStore
	cache  reportInvalidator
	queue  jobDispatcher
	logger *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(store recordStore, cache reportInvalidator, queue jobDispatcher, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, cache: cache, queue: queue, logger: logger}
}

// RecordAttendance validates and persists one attendance fact. Writing the
// same (student, date) pair again models a correction.
func (s *AttendanceService) RecordAttendance(ctx context.Context, studentID, lastName, dateISO string, status models.AttendanceStatus, late, earlyDismissal bool) (*models.AttendanceRecord, error) {
	record, err := models.NewAttendanceRecord(studentID, dateISO, status, late, earlyDismissal)
	if err != nil {
		return nil, err
	}
	record.LastName = lastName

	stored, err := s.store.Save(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance record")
	}

	s.afterMutation(ctx)
	return stored, nil
}

// ListAttendance returns records matching the filter.
func (s *AttendanceService) ListAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, nil
}

// ScheduleDayOff persists a scheduled day off and bulk-generates EXCUSED
// records for every known student on that date.
func (s *AttendanceService) ScheduleDayOff(ctx context.Context, dateISO string, reason models.DayOffReason) (*models.ScheduledDayOff, error) {
	dayOff, err := models.NewScheduledDayOff(dateISO, reason)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.SaveDayOff(ctx, dayOff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save scheduled day off")
	}

	studentIDs, err := s.store.StudentIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	for _, studentID := range studentIDs {
		record, err := models.NewAttendanceRecord(studentID, stored.DateISO(), models.AttendanceStatusExcused, false, false)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.Save(ctx, record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save excused record")
		}
	}

	s.afterMutation(ctx)
	return stored, nil
}

// ListDaysOff returns every scheduled day off.
func (s *AttendanceService) ListDaysOff(ctx context.Context) ([]models.ScheduledDayOff, error) {
	daysOff, err := s.store.ListDaysOff(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scheduled days off")
	}
	return daysOff, nil
}

func (s *AttendanceService) afterMutation(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.InvalidateReports(ctx); err != nil {
			s.logger.Warn("report cache invalidation failed", zap.Error(err))
		}
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{Type: JobTypeEvaluateAlerts}); err != nil {
			s.logger.Warn("failed to enqueue alert evaluation", zap.Error(err))
		}
	}
}
