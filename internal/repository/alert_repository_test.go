package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-insight-api/internal/models"
)

func newAlertRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func thresholdColumns() []string {
	return []string{"id", "type", "count", "period", "student_id", "notify_parents", "created_at", "updated_at"}
}

func alertColumns() []string {
	return []string{"id", "threshold_id", "student_id", "type", "current_count", "threshold_count", "period", "status", "dismissable", "created_at", "dismissed_at"}
}

func TestAlertRepositoryCreateThreshold(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	threshold, err := models.NewAlertThreshold(models.ThresholdTypeAbsence, 3, models.PeriodThirtyDays, nil, true)
	require.NoError(t, err)

	rows := sqlmock.NewRows(thresholdColumns()).
		AddRow("thr-1", "ABSENCE", 3, "THIRTY_DAYS", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO alert_thresholds")).
		WillReturnRows(rows)

	stored, err := repo.CreateThreshold(context.Background(), threshold)
	require.NoError(t, err)
	require.Equal(t, "thr-1", stored.ID)
	require.Nil(t, stored.StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryUpdateThresholdMissing(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE alert_thresholds")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateThreshold(context.Background(), &models.AlertThreshold{ID: "missing", Count: 5})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryListAlertsFilters(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	status := models.AlertStatusActive

	rows := sqlmock.NewRows(alertColumns()).
		AddRow("alert-1", "thr-1", "student-1", "ABSENCE", 4, 3, "THIRTY_DAYS", "active", true, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, threshold_id, student_id")).
		WithArgs("student-1", status).
		WillReturnRows(rows)

	list, err := repo.ListAlerts(context.Background(), AlertFilter{StudentID: "student-1", Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "alert-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryHasActiveAlert(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	rows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance_alerts")).
		WithArgs("thr-1", "student-1", models.AlertStatusActive).
		WillReturnRows(rows)

	active, err := repo.HasActiveAlert(context.Background(), "thr-1", "student-1")
	require.NoError(t, err)
	require.True(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryDismissAlreadyDismissed(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_alerts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DismissAlert(context.Background(), "alert-1", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
