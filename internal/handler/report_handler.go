package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saferoute/admin-api/internal/dto"
	"github.com/saferoute/admin-api/internal/middleware"
	"github.com/saferoute/admin-api/internal/models"
	"github.com/saferoute/admin-api/internal/service"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
	"github.com/saferoute/admin-api/pkg/response"
)

type reportService interface {
	Get(ctx context.Context, id string) (*models.EnrichedReport, error)
	Create(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error
	Delete(ctx context.Context, id string) error
}

type statsService interface {
	Counts(ctx context.Context, viewer service.Viewer) (*dto.ReportStats, error)
}

type viewService interface {
	ComposerFor(viewer service.Viewer) *service.Composer
}

type exportService interface {
	Render(reports []models.EnrichedReport, format service.ExportFormat, title string) ([]byte, string, error)
}

// ReportHandler exposes the incident report admin endpoints.
type ReportHandler struct {
	views   viewService
	reports reportService
	stats   statsService
	export  exportService
}

// NewReportHandler constructs handler.
func NewReportHandler(views viewService, reports reportService, stats statsService, export exportService) *ReportHandler {
	return &ReportHandler{views: views, reports: reports, stats: stats, export: export}
}

// List returns the composed, filtered, ordered report view for the caller.
func (h *ReportHandler) List(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter parameters"))
		return
	}

	composer := h.views.ComposerFor(service.ViewerFromClaims(claims))
	composer.SetState(query.FilterState())
	rows := composer.Current()
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"count": len(rows)})
}

// Get returns one enriched report.
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Create files an admin-submitted report.
func (h *ReportHandler) Create(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload"))
		return
	}

	report, err := h.reports.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// UpdateStatus marks a report pending, verified, resolved or rejected.
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload"))
		return
	}

	if err := h.reports.UpdateStatus(c.Request.Context(), c.Param("id"), models.ReportStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete permanently removes a report.
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats returns the per-status tally for the caller's scope.
func (h *ReportHandler) Stats(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.stats.Counts(c.Request.Context(), service.ViewerFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Export downloads the caller's current composed view as CSV or PDF. The
// same filter parameters as List apply, so the document matches what the
// operator sees.
func (h *ReportHandler) Export(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter parameters"))
		return
	}

	composer := h.views.ComposerFor(service.ViewerFromClaims(claims))
	composer.SetState(query.FilterState())
	rows := composer.Current()

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	title := exportTitle(composer.State())
	payload, contentType, err := h.export.Render(rows, format, title)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("incident-reports-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func exportTitle(state models.FilterState) string {
	period := state.PeriodFilter
	if period == "" {
		period = "All Time"
	}
	return fmt.Sprintf("Incident Reports - %s - %s", state.StatusTab, period)
}
