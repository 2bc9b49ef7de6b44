package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	"github.com/noah-isme/attendance-insight-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

type thresholdStore interface {
	CreateThreshold(ctx context.Context, threshold *models.AlertThreshold) (*models.AlertThreshold, error)
	UpdateThreshold(ctx context.Context, threshold *models.AlertThreshold) error
	GetThreshold(ctx context.Context, id string) (*models.AlertThreshold, error)
	ListThresholds(ctx context.Context) ([]models.AlertThreshold, error)
	CreateAlert(ctx context.Context, alert *models.AttendanceAlert) (*models.AttendanceAlert, error)
	ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.AttendanceAlert, error)
	HasActiveAlert(ctx context.Context, thresholdID, studentID string) (bool, error)
	DismissAlert(ctx context.Context, id string, at time.Time) error
}

type attendanceCounter interface {
	StatusCounts(ctx context.Context, status models.AttendanceStatus, since *time.Time) (map[string]int, error)
}

type alertMetrics interface {
	RecordAlertTriggered(alertType, period string)
}

// AlertService evaluates thresholds against rolling and cumulative counts,
// detects conflicting threshold rules, and tracks threshold effectiveness.
// Threshold mutations are serialized per threshold id.
type AlertService struct {
	store   thresholdStore
	counts  attendanceCounter
	metrics alertMetrics
	logger  *zap.Logger
	cfg     AlertServiceConfig
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// AlertServiceConfig governs the rolling evaluation window.
type AlertServiceConfig struct {
	RollingDays int
}

// ThresholdWrite is the outcome of a threshold create or update: the stored
// rule plus any non-blocking conflicts surfaced for operator review.
type ThresholdWrite struct {
	Threshold *models.AlertThreshold     `json:"threshold"`
	Warnings  []models.ThresholdConflict `json:"warnings,omitempty"`
}

// NewAlertService constructs the alert service.
func NewAlertService(store thresholdStore, counts attendanceCounter, metrics alertMetrics, logger *zap.Logger, cfg AlertServiceConfig) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RollingDays <= 0 {
		cfg.RollingDays = 30
	}
	return &AlertService{
		store:   store,
		counts:  counts,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *AlertService) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// CreateThreshold validates the rule, checks it against existing thresholds
// for conflicts, and persists it. Duplicate conflicts block the write;
// overlapping and contradictory conflicts are returned as warnings.
func (s *AlertService) CreateThreshold(ctx context.Context, thresholdType models.ThresholdType, count int, period models.ThresholdPeriod, studentID *string, notifyParents bool) (*ThresholdWrite, error) {
	candidate, err := models.NewAlertThreshold(thresholdType, count, period, studentID, notifyParents)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListThresholds(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list thresholds")
	}
	conflicts := DetectConflicts(candidate, existing)
	warnings := make([]models.ThresholdConflict, 0, len(conflicts))
	for _, conflict := range conflicts {
		if conflict.Severity == models.SeverityError {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("duplicate threshold rule (conflicts with %s)", conflict.SecondID))
		}
		warnings = append(warnings, conflict)
	}

	stored, err := s.store.CreateThreshold(ctx, candidate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create threshold")
	}
	return &ThresholdWrite{Threshold: stored, Warnings: warnings}, nil
}

// UpdateThreshold applies in-place mutations of count and notifyParents
// under the per-id lock.
func (s *AlertService) UpdateThreshold(ctx context.Context, id string, count *int, notifyParents *bool) (*models.AlertThreshold, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	threshold, err := s.store.GetThreshold(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "threshold not found: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load threshold")
	}
	if err := threshold.ApplyUpdate(count, notifyParents); err != nil {
		return nil, err
	}
	if err := s.store.UpdateThreshold(ctx, threshold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "threshold not found: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update threshold")
	}
	return threshold, nil
}

// ListThresholds returns every configured rule.
func (s *AlertService) ListThresholds(ctx context.Context) ([]models.AlertThreshold, error) {
	thresholds, err := s.store.ListThresholds(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list thresholds")
	}
	return thresholds, nil
}

// ListAlerts returns alerts matching the filter.
func (s *AlertService) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]models.AttendanceAlert, error) {
	alerts, err := s.store.ListAlerts(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, nil
}

// DismissAlert marks an active alert dismissed.
func (s *AlertService) DismissAlert(ctx context.Context, id string) error {
	if err := s.store.DismissAlert(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no active alert: "+id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss alert")
	}
	return nil
}

// Evaluate runs every threshold against current counts. A student whose
// count meets a threshold gets exactly one active alert per (student,
// threshold) pair; re-evaluation never duplicates an alert that is still
// active.
func (s *AlertService) Evaluate(ctx context.Context) (int, error) {
	thresholds, err := s.store.ListThresholds(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list thresholds")
	}
	created := 0
	for i := range thresholds {
		n, err := s.EvaluateThreshold(ctx, &thresholds[i])
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

// EvaluateThreshold evaluates a single threshold rule and returns the number
// of alerts created.
func (s *AlertService) EvaluateThreshold(ctx context.Context, threshold *models.AlertThreshold) (int, error) {
	counts, err := s.countsFor(ctx, threshold)
	if err != nil {
		return 0, err
	}

	created := 0
	for studentID, count := range counts {
		if threshold.StudentID != nil && *threshold.StudentID != studentID {
			continue
		}
		if count < threshold.Count {
			continue
		}
		active, err := s.store.HasActiveAlert(ctx, threshold.ID, studentID)
		if err != nil {
			return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active alert")
		}
		if active {
			continue
		}
		alert := &models.AttendanceAlert{
			ThresholdID:    threshold.ID,
			StudentID:      studentID,
			Type:           threshold.Type,
			CurrentCount:   count,
			ThresholdCount: threshold.Count,
			Period:         threshold.Period,
			Status:         models.AlertStatusActive,
			Dismissable:    true,
		}
		if _, err := s.store.CreateAlert(ctx, alert); err != nil {
			return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
		}
		created++
		if s.metrics != nil {
			s.metrics.RecordAlertTriggered(string(threshold.Type), string(threshold.Period))
		}
		s.logger.Info("attendance alert triggered",
			zap.String("threshold_id", threshold.ID),
			zap.String("student_id", studentID),
			zap.Int("count", count))
	}
	return created, nil
}

// countsFor resolves a threshold's counting rule into per-student counts.
// ABSENCE counts absences, LATENESS counts late arrivals, CUMULATIVE counts
// both combined. THIRTY_DAYS restricts counting to the rolling window ending
// today.
func (s *AlertService) countsFor(ctx context.Context, threshold *models.AlertThreshold) (map[string]int, error) {
	var since *time.Time
	if threshold.Period == models.PeriodThirtyDays {
		cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.RollingDays)
		since = &cutoff
	}

	statuses := []models.AttendanceStatus{}
	switch threshold.Type {
	case models.ThresholdTypeAbsence:
		statuses = append(statuses, models.AttendanceStatusAbsent)
	case models.ThresholdTypeLateness:
		statuses = append(statuses, models.AttendanceStatusLate)
	case models.ThresholdTypeCumulative:
		statuses = append(statuses, models.AttendanceStatusAbsent, models.AttendanceStatusLate)
	default:
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown threshold type: "+string(threshold.Type))
	}

	combined := make(map[string]int)
	for _, status := range statuses {
		counts, err := s.counts.StatusCounts(ctx, status, since)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
		}
		for studentID, count := range counts {
			combined[studentID] += count
		}
	}
	return combined, nil
}

// DetectConflicts compares a candidate rule against existing rules. A rule
// with the same type, period, and scope is a duplicate unless only
// notifyParents differs, which makes the pair contradictory. Same type and
// scope with different periods overlap, since the wider window pre-empts
// the narrower one.
func DetectConflicts(candidate *models.AlertThreshold, existing []models.AlertThreshold) []models.ThresholdConflict {
	var conflicts []models.ThresholdConflict
	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || other.Type != candidate.Type || other.ScopeKey() != candidate.ScopeKey() {
			continue
		}
		if other.Period == candidate.Period {
			if other.NotifyParents != candidate.NotifyParents && other.Count == candidate.Count {
				conflicts = append(conflicts, models.ThresholdConflict{
					Kind:       models.ConflictContradictory,
					Severity:   models.SeverityWarning,
					FirstID:    candidate.ID,
					SecondID:   other.ID,
					Resolution: "align notifyParents on both rules or remove one of them",
				})
				continue
			}
			conflicts = append(conflicts, models.ThresholdConflict{
				Kind:     models.ConflictDuplicate,
				Severity: models.SeverityError,
				FirstID:  candidate.ID,
				SecondID: other.ID,
			})
			continue
		}
		conflicts = append(conflicts, models.ThresholdConflict{
			Kind:       models.ConflictOverlapping,
			Severity:   models.SeverityWarning,
			FirstID:    candidate.ID,
			SecondID:   other.ID,
			Resolution: "the cumulative rule will pre-empt the rolling-window rule; consider keeping only one period",
		})
	}
	return conflicts
}

// Effectiveness aggregates alert outcomes for one threshold. Alerts
// dismissed within a day count as false positives; slower dismissals count
// as successful interventions.
func (s *AlertService) Effectiveness(ctx context.Context, thresholdID string) (*models.ThresholdEffectiveness, error) {
	alerts, err := s.store.ListAlerts(ctx, repository.AlertFilter{ThresholdID: thresholdID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}

	result := &models.ThresholdEffectiveness{ThresholdID: thresholdID, AlertsTriggered: len(alerts)}
	dismissed := 0
	var totalResolutionDays float64
	for _, alert := range alerts {
		if alert.Status != models.AlertStatusDismissed || alert.DismissedAt == nil {
			continue
		}
		dismissed++
		days := alert.DismissedAt.Sub(alert.CreatedAt).Hours() / 24
		totalResolutionDays += days
		if days < 1 {
			result.FalsePositives++
		} else {
			result.InterventionsSuccessful++
		}
	}
	if dismissed > 0 {
		result.AverageResolutionDays = totalResolutionDays / float64(dismissed)
	}
	return result, nil
}

// CompareThreshold replays current per-student counts against a candidate
// count/period setting and reports the alert delta the change would cause.
func (s *AlertService) CompareThreshold(ctx context.Context, thresholdID string, proposedCount int, proposedPeriod models.ThresholdPeriod) (*models.ThresholdComparison, error) {
	if proposedCount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "threshold count must be positive")
	}
	if !proposedPeriod.Valid() {
		return nil, appErrors.Clone(appErrors.ErrDomainValidation, "unknown threshold period: "+string(proposedPeriod))
	}

	threshold, err := s.store.GetThreshold(ctx, thresholdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "threshold not found: "+thresholdID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load threshold")
	}

	currentCounts, err := s.countsFor(ctx, threshold)
	if err != nil {
		return nil, err
	}
	proposed := *threshold
	proposed.Count = proposedCount
	proposed.Period = proposedPeriod
	proposedCounts, err := s.countsFor(ctx, &proposed)
	if err != nil {
		return nil, err
	}

	gained, lost := 0, 0
	students := make(map[string]struct{}, len(currentCounts)+len(proposedCounts))
	for studentID := range currentCounts {
		students[studentID] = struct{}{}
	}
	for studentID := range proposedCounts {
		students[studentID] = struct{}{}
	}
	for studentID := range students {
		if threshold.StudentID != nil && *threshold.StudentID != studentID {
			continue
		}
		currentHit := currentCounts[studentID] >= threshold.Count
		proposedHit := proposedCounts[studentID] >= proposedCount
		if proposedHit && !currentHit {
			gained++
		}
		if currentHit && !proposedHit {
			lost++
		}
	}

	recommendation := "the proposed setting changes little; keep the current rule"
	if gained > lost {
		recommendation = fmt.Sprintf("the proposed setting raises %d additional alert(s); adopt it to catch students earlier", gained-lost)
	} else if lost > gained {
		recommendation = fmt.Sprintf("the proposed setting suppresses %d alert(s); adopt it to reduce noise", lost-gained)
	}

	return &models.ThresholdComparison{
		ThresholdID:    thresholdID,
		CurrentCount:   threshold.Count,
		ProposedCount:  proposedCount,
		CurrentPeriod:  threshold.Period,
		ProposedPeriod: proposedPeriod,
		AlertsGained:   gained,
		AlertsLost:     lost,
		Recommendation: recommendation,
	}, nil
}
