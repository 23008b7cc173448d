package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saferoute/admin-api/internal/dto"
	"github.com/saferoute/admin-api/internal/models"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
)

type reportStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error
	Delete(ctx context.Context, id string) error
}

type batchEnricher interface {
	EnrichBatch(ctx context.Context, reports []models.Report) []models.EnrichedReport
}

// statsCacheKeyPattern matches every cached tally, regardless of scope.
const statsCacheKeyPattern = "reports:stats:*"

// ReportService handles single-report operations: detail lookup, admin
// submission, status transitions and deletion. Mutations go straight to the
// store; the live feed re-delivers the updated snapshot, so the in-memory
// view is never optimistically patched.
type ReportService struct {
	repo     reportStore
	enricher batchEnricher
	cache    *CacheService
	logger   *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportStore, enricher batchEnricher, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, enricher: enricher, cache: cache, logger: logger}
}

// Get returns one report with its reporter identity resolved.
func (s *ReportService) Get(ctx context.Context, id string) (*models.EnrichedReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	enriched := s.enricher.EnrichBatch(ctx, []models.Report{*report})
	return &enriched[0], nil
}

// Create persists an admin-submitted report. Restricted admins always file
// under their home barangay; the elevated role must name one.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	barangay := req.Barangay
	if actor.Role == models.RoleBarangayAdmin {
		barangay = actor.Barangay
	}
	if barangay == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "barangay required")
	}

	datetime := req.Datetime
	if len(datetime) == 0 {
		datetime = json.RawMessage(fmt.Sprintf("%d", time.Now().UnixMilli()))
	}

	channel := "admin"
	email := actor.Email
	report := &models.Report{
		Category:       req.Category,
		Location:       req.Location,
		Landmark:       req.Landmark,
		Datetime:       datetime,
		Status:         models.StatusPending,
		Description:    req.Description,
		Barangay:       models.NormalizeBarangay(barangay),
		Lat:            req.Lat,
		Lng:            req.Lng,
		ReportedBy:     &channel,
		CreatedByEmail: &email,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	s.invalidateStats(ctx)
	s.logger.Info("report created",
		zap.String("reportId", report.ID), zap.String("barangay", report.Barangay))
	return report, nil
}

// UpdateStatus sets the moderation status of one report.
func (s *ReportService) UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error {
	if !models.ValidStatus(status) {
		return appErrors.ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not update status")
	}
	s.invalidateStats(ctx)
	s.logger.Info("report status updated",
		zap.String("reportId", id), zap.String("status", string(status)))
	return nil
}

// Delete removes one report permanently.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not delete report")
	}
	s.invalidateStats(ctx)
	s.logger.Info("report deleted", zap.String("reportId", id))
	return nil
}

func (s *ReportService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, statsCacheKeyPattern)
}
