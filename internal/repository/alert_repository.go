package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-insight-api/internal/models"
)

// AlertRepository persists alert thresholds and triggered alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateThreshold stores a new threshold rule.
func (r *AlertRepository) CreateThreshold(ctx context.Context, threshold *models.AlertThreshold) (*models.AlertThreshold, error) {
	if threshold.ID == "" {
		threshold.ID = uuid.NewString()
	}
	query := `INSERT INTO alert_thresholds (id, type, count, period, student_id, notify_parents, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, type, count, period, student_id, notify_parents, created_at, updated_at`
	var stored models.AlertThreshold
	if err := r.db.GetContext(ctx, &stored, query,
		threshold.ID, threshold.Type, threshold.Count, threshold.Period,
		threshold.StudentID, threshold.NotifyParents, threshold.CreatedAt, threshold.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create alert threshold: %w", err)
	}
	return &stored, nil
}

// UpdateThreshold persists in-place mutations of count and notify_parents.
func (r *AlertRepository) UpdateThreshold(ctx context.Context, threshold *models.AlertThreshold) error {
	query := `UPDATE alert_thresholds SET count = $2, notify_parents = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, threshold.ID, threshold.Count, threshold.NotifyParents, threshold.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update alert threshold: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert threshold: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetThreshold loads a threshold by id.
func (r *AlertRepository) GetThreshold(ctx context.Context, id string) (*models.AlertThreshold, error) {
	var threshold models.AlertThreshold
	query := `SELECT id, type, count, period, student_id, notify_parents, created_at, updated_at FROM alert_thresholds WHERE id = $1`
	if err := r.db.GetContext(ctx, &threshold, query, id); err != nil {
		return nil, fmt.Errorf("get alert threshold: %w", err)
	}
	return &threshold, nil
}

// ListThresholds returns every configured threshold rule.
func (r *AlertRepository) ListThresholds(ctx context.Context) ([]models.AlertThreshold, error) {
	var rows []models.AlertThreshold
	query := `SELECT id, type, count, period, student_id, notify_parents, created_at, updated_at FROM alert_thresholds ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list alert thresholds: %w", err)
	}
	return rows, nil
}

// CreateAlert stores a triggered alert instance.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *models.AttendanceAlert) (*models.AttendanceAlert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO attendance_alerts (id, threshold_id, student_id, type, current_count, threshold_count, period, status, dismissable, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, threshold_id, student_id, type, current_count, threshold_count, period, status, dismissable, created_at, dismissed_at`
	var stored models.AttendanceAlert
	if err := r.db.GetContext(ctx, &stored, query,
		alert.ID, alert.ThresholdID, alert.StudentID, alert.Type, alert.CurrentCount,
		alert.ThresholdCount, alert.Period, alert.Status, alert.Dismissable, alert.CreatedAt); err != nil {
		return nil, fmt.Errorf("create attendance alert: %w", err)
	}
	return &stored, nil
}

// AlertFilter scopes alert listing.
type AlertFilter struct {
	StudentID   string
	ThresholdID string
	Status      *models.AlertStatus
}

// ListAlerts returns alerts matching the filter, newest first.
func (r *AlertRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AttendanceAlert, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ThresholdID != "" {
		where = append(where, fmt.Sprintf("threshold_id = $%d", len(args)+1))
		args = append(args, filter.ThresholdID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	query := fmt.Sprintf(`SELECT id, threshold_id, student_id, type, current_count, threshold_count, period, status, dismissable, created_at, dismissed_at
FROM attendance_alerts WHERE %s ORDER BY created_at DESC`, strings.Join(where, " AND "))

	var rows []models.AttendanceAlert
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance alerts: %w", err)
	}
	return rows, nil
}

// HasActiveAlert reports whether an undismissed alert exists for the
// (threshold, student) pair.
func (r *AlertRepository) HasActiveAlert(ctx context.Context, thresholdID, studentID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM attendance_alerts WHERE threshold_id = $1 AND student_id = $2 AND status = $3`
	if err := r.db.GetContext(ctx, &count, query, thresholdID, studentID, models.AlertStatusActive); err != nil {
		return false, fmt.Errorf("check active alert: %w", err)
	}
	return count > 0, nil
}

// DismissAlert marks an alert dismissed at the given time.
func (r *AlertRepository) DismissAlert(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE attendance_alerts SET status = $2, dismissed_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.AlertStatusDismissed, at, models.AlertStatusActive)
	if err != nil {
		return fmt.Errorf("dismiss attendance alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dismiss attendance alert: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
