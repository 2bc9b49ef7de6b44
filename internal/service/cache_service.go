package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-insight-api/internal/models"
	appErrors "github.com/noah-isme/attendance-insight-api/pkg/errors"
)

const reportCachePrefix = "report:"

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService namespaces report results inside the shared cache and owns the
// invalidation policy: any attendance mutation flushes the whole report
// namespace, since any filter could be affected.
type CacheService struct {
	store  cacheStore
	logger *zap.Logger
	ttl    time.Duration
}

// NewCacheService constructs the cache service. A zero TTL keeps entries
// until an explicit invalidation.
func NewCacheService(store cacheStore, logger *zap.Logger, ttl time.Duration) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, logger: logger, ttl: ttl}
}

// GetReport returns the cached result for a request fingerprint, or
// ErrCacheMiss.
func (s *CacheService) GetReport(ctx context.Context, fingerprint string) (*models.ReportResult, error) {
	var result models.ReportResult
	if err := s.store.Get(ctx, reportCachePrefix+fingerprint, &result); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.String("fingerprint", fingerprint), zap.Error(err))
			return nil, appErrors.ErrCacheMiss
		}
		return nil, appErrors.ErrCacheMiss
	}
	return &result, nil
}

// SetReport stores a computed result under its fingerprint. Writes are
// idempotent; concurrent writers for the same fingerprint produce the same
// value, so last writer wins is safe.
func (s *CacheService) SetReport(ctx context.Context, fingerprint string, result *models.ReportResult) {
	if err := s.store.Set(ctx, reportCachePrefix+fingerprint, result, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}

// InvalidateReports flushes every cached report result.
func (s *CacheService) InvalidateReports(ctx context.Context) error {
	if err := s.store.DeleteByPattern(ctx, reportCachePrefix+"*"); err != nil {
		s.logger.Error("report cache flush failed", zap.Error(err))
		return err
	}
	return nil
}
