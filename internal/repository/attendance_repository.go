package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-insight-api/internal/models"
)

// AttendanceRepository handles persistence for attendance records and
// scheduled days off.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Save stores a validated record. Records are immutable; writing the same
// (student, date) pair replaces the previous fact, which models a correction.
func (r *AttendanceRepository) Save(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	query := `INSERT INTO attendance_records (id, student_id, last_name, date, status, late, early_dismissal, on_time, excused, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (student_id, date)
DO UPDATE SET status = EXCLUDED.status, late = EXCLUDED.late, early_dismissal = EXCLUDED.early_dismissal,
    on_time = EXCLUDED.on_time, excused = EXCLUDED.excused, created_at = EXCLUDED.created_at
RETURNING id, student_id, last_name, date, status, late, early_dismissal, on_time, excused, created_at`
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.LastName, record.Date, record.Status,
		record.Late, record.EarlyDismissal, record.OnTime, record.Excused, record.CreatedAt); err != nil {
		return nil, fmt.Errorf("save attendance record: %w", err)
	}
	return &stored, nil
}

// List returns records matching the provided filter, ordered by date.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.LastName != "" {
		where = append(where, fmt.Sprintf("LOWER(last_name) = LOWER($%d)", len(args)+1))
		args = append(args, filter.LastName)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := fmt.Sprintf(`SELECT id, student_id, last_name, date, status, late, early_dismissal, on_time, excused, created_at
FROM attendance_records WHERE %s ORDER BY date ASC, student_id ASC`, strings.Join(where, " AND "))

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return rows, nil
}

// StatusCounts tallies records of one status per student, optionally limited
// to dates on or after since. It backs threshold evaluation.
func (r *AttendanceRepository) StatusCounts(ctx context.Context, status models.AttendanceStatus, since *time.Time) (map[string]int, error) {
	where := []string{"status = $1"}
	args := []interface{}{status}
	if since != nil {
		where = append(where, "date >= $2")
		args = append(args, *since)
	}
	query := fmt.Sprintf(`SELECT student_id, COUNT(*) AS cnt
FROM attendance_records WHERE %s GROUP BY student_id`, strings.Join(where, " AND "))

	rows := []struct {
		StudentID string `db:"student_id"`
		Count     int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.StudentID] = row.Count
	}
	return counts, nil
}

// StudentIDs returns the distinct set of students with at least one record.
func (r *AttendanceRepository) StudentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT student_id FROM attendance_records ORDER BY student_id`); err != nil {
		return nil, fmt.Errorf("list student ids: %w", err)
	}
	return ids, nil
}

// SaveDayOff stores a scheduled day off.
func (r *AttendanceRepository) SaveDayOff(ctx context.Context, dayOff *models.ScheduledDayOff) (*models.ScheduledDayOff, error) {
	now := time.Now().UTC()
	if dayOff.ID == "" {
		dayOff.ID = uuid.NewString()
	}
	if dayOff.CreatedAt.IsZero() {
		dayOff.CreatedAt = now
	}
	query := `INSERT INTO scheduled_days_off (id, date, reason, scope, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (date) DO UPDATE SET reason = EXCLUDED.reason
RETURNING id, date, reason, scope, created_at`
	var stored models.ScheduledDayOff
	if err := r.db.GetContext(ctx, &stored, query, dayOff.ID, dayOff.Date, dayOff.Reason, dayOff.Scope, dayOff.CreatedAt); err != nil {
		return nil, fmt.Errorf("save scheduled day off: %w", err)
	}
	return &stored, nil
}

// ListDaysOff returns all scheduled days off ordered by date.
func (r *AttendanceRepository) ListDaysOff(ctx context.Context) ([]models.ScheduledDayOff, error) {
	var rows []models.ScheduledDayOff
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, date, reason, scope, created_at FROM scheduled_days_off ORDER BY date ASC`); err != nil {
		return nil, fmt.Errorf("list scheduled days off: %w", err)
	}
	return rows, nil
}
