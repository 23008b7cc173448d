package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/admin-api/internal/dto"
	"github.com/saferoute/admin-api/internal/middleware"
	"github.com/saferoute/admin-api/internal/models"
	"github.com/saferoute/admin-api/internal/service"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
)

type reportServiceMock struct {
	getResp   *models.EnrichedReport
	getErr    error
	created   *models.Report
	createErr error
	statusErr error
	deleteErr error
}

func (m *reportServiceMock) Get(context.Context, string) (*models.EnrichedReport, error) {
	return m.getResp, m.getErr
}

func (m *reportServiceMock) Create(_ context.Context, req dto.CreateReportRequest, _ *models.JWTClaims) (*models.Report, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Report{ID: "r-new", Category: req.Category, Barangay: req.Barangay}, nil
}

func (m *reportServiceMock) UpdateStatus(context.Context, string, models.ReportStatus) error {
	return m.statusErr
}

func (m *reportServiceMock) Delete(context.Context, string) error {
	return m.deleteErr
}

type statsServiceMock struct {
	resp *dto.ReportStats
	err  error
}

func (m *statsServiceMock) Counts(context.Context, service.Viewer) (*dto.ReportStats, error) {
	return m.resp, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func seededViews(reports ...models.EnrichedReport) *service.ViewService {
	views := service.NewViewService(nil)
	views.Apply(reports)
	return views
}

func pendingReport(id string, epochMs int64) models.EnrichedReport {
	return models.EnrichedReport{
		Report: models.Report{
			ID:       id,
			Category: "Flooding",
			Status:   models.StatusPending,
			Barangay: "Carig Sur",
			Datetime: json.RawMessage(strconv.FormatInt(epochMs, 10)),
		},
		ReporterName:    "Resident " + id,
		ReporterAddress: models.Dash,
		ReporterContact: models.Dash,
	}
}

func superAdminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "sa-1", Role: models.RoleSuperAdmin}
}

func TestReportHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	views := seededViews(
		pendingReport("a", 1710000000000),
		pendingReport("b", 1711000000000),
	)
	handler := NewReportHandler(views, &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports?sort=desc", nil)
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.EnrichedReport `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.Equal(t, "b", envelope.Data[0].ID)
	require.EqualValues(t, 2, envelope.Meta["count"])
}

func TestReportHandlerListRejectsBadPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports?period=march-2024", nil)
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerListUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports", nil)
	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &reportServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "report not found")}
	handler := NewReportHandler(seededViews(), svc, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	payload, _ := json.Marshal(dto.CreateReportRequest{Category: "Flooding", Barangay: "Carig Sur"})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestReportHandlerCreateRequiresCategory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodPost, "/reports", []byte(`{"barangay":"Carig Sur"}`))
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodPatch, "/reports/r-1/status", []byte(`{"status":"resolved"}`))
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}

	handler.UpdateStatus(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestReportHandlerUpdateStatusRejectsUnknownValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, &statsServiceMock{}, nil)

	c, w := newGinContext(http.MethodPatch, "/reports/r-1/status", []byte(`{"status":"archived"}`))
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stats := &statsServiceMock{resp: &dto.ReportStats{Barangay: models.AllBarangays, Pending: 3, Total: 3}}
	handler := NewReportHandler(seededViews(), &reportServiceMock{}, stats, nil)

	c, w := newGinContext(http.MethodGet, "/reports/stats", nil)
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"pending":3`)
}

func TestReportHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	views := seededViews(pendingReport("a", 1710000000000))
	handler := NewReportHandler(views, &reportServiceMock{}, &statsServiceMock{}, service.NewExportService(nil, nil, nil))

	c, w := newGinContext(http.MethodGet, "/reports/export?format=csv", nil)
	c.Set(middleware.ContextUserKey, superAdminClaims())

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, w.Body.String(), "Flooding")
}
