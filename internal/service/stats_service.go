package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/dto"
	"github.com/saferoute/admin-api/internal/models"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
)

type statusCounter interface {
	CountByStatus(ctx context.Context, barangay string) ([]models.StatusCount, error)
}

// StatsService tallies reports per status for an operator's scope, with a
// short-lived cache in front of the aggregate query.
type StatsService struct {
	repo   statusCounter
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(repo statusCounter, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Counts returns the per-status tally visible to the viewer.
func (s *StatsService) Counts(ctx context.Context, viewer Viewer) (*dto.ReportStats, error) {
	scope := models.AllBarangays
	if !viewer.AllBarangays() {
		scope = models.NormalizeBarangay(viewer.Barangay)
	}
	key := fmt.Sprintf("reports:stats:%s", scope)

	var stats dto.ReportStats
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &stats); hit {
			return &stats, nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tally reports")
	}

	stats = dto.ReportStats{Barangay: scope, GeneratedAt: time.Now().UTC()}
	for _, c := range counts {
		switch c.Status {
		case models.StatusPending:
			stats.Pending = c.Total
		case models.StatusVerified:
			stats.Verified = c.Total
		case models.StatusResolved:
			stats.Resolved = c.Total
		case models.StatusRejected:
			stats.Rejected = c.Total
		}
		stats.Total += c.Total
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return &stats, nil
}
