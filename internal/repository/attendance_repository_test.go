package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceColumns() []string {
	return []string{"id", "student_id", "last_name", "date", "status", "late", "early_dismissal", "on_time", "excused", "created_at"}
}

func TestAttendanceRepositorySave(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	record, err := models.NewAttendanceRecord("student-1", "2025-03-10", models.AttendanceStatusLate, false, false)
	require.NoError(t, err)

	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "student-1", "", record.Date, "LATE", true, false, false, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WillReturnRows(rows)

	stored, err := repo.Save(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, "rec-1", stored.ID)
	require.Equal(t, models.AttendanceStatusLate, stored.Status)
	require.True(t, stored.Late)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	status := models.AttendanceStatusAbsent
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("rec-1", "student-1", "Nguyen", from, "ABSENT", false, false, false, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, last_name, date")).
		WithArgs("student-1", status, from, to).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.AttendanceFilter{
		StudentID: "student-1",
		Status:    &status,
		DateFrom:  &from,
		DateTo:    &to,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "rec-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	since := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"student_id", "cnt"}).
		AddRow("student-1", 4).
		AddRow("student-2", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, COUNT")).
		WithArgs(models.AttendanceStatusAbsent, since).
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background(), models.AttendanceStatusAbsent, &since)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"student-1": 4, "student-2": 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySaveDayOff(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	dayOff, err := models.NewScheduledDayOff("2025-12-25", models.DayOffHoliday)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "date", "reason", "scope", "created_at"}).
		AddRow("day-1", dayOff.Date, "HOLIDAY", "all", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO scheduled_days_off")).
		WillReturnRows(rows)

	stored, err := repo.SaveDayOff(context.Background(), dayOff)
	require.NoError(t, err)
	require.Equal(t, "day-1", stored.ID)
	require.Equal(t, models.DayOffHoliday, stored.Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}
