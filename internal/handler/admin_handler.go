package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"civicadmin/internal/aggregate"
	"civicadmin/internal/domain"
	"civicadmin/internal/middleware"
	"civicadmin/internal/models"
	"civicadmin/internal/service"
	"civicadmin/pkg/location"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Dashboard is the part of service.Dashboard the handlers need.
type Dashboard interface {
	Refresh(ctx context.Context) (*service.Snapshot, error)
	Reports(ctx context.Context, q service.Query) ([]models.ReportWithVotes, *service.Snapshot, error)
	Counts(ctx context.Context) (aggregate.Counts, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id, status string) (*models.ReportWithVotes, error)
}

// StatusHistory is implemented by sources that keep an audit trail.
type StatusHistory interface {
	StatusHistory(ctx context.Context, reportID string, limit int) ([]models.AuditLog, error)
}

type AdminHandler struct {
	dashboard Dashboard
	history   StatusHistory
}

func NewAdminHandler(dashboard Dashboard, history StatusHistory) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, history: history}
}

type reportsResponse struct {
	Data      []models.ReportWithVotes `json:"data"`
	Total     int                      `json:"total"`
	Counts    aggregate.Counts         `json:"counts"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// ListReports handles GET /admin/reports?status=&category=&lat=&lng=&radius_km=.
func (h *AdminHandler) ListReports(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, snap, err := h.dashboard.Reports(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load reports: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, reportsResponse{
		Data:      nonNil(rows),
		Total:     len(rows),
		Counts:    aggregate.CountByStatus(snap.Rows),
		FetchedAt: snap.FetchedAt,
	})
}

// RefreshReports handles POST /admin/reports/refresh.
func (h *AdminHandler) RefreshReports(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.dashboard.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load reports: " + err.Error()})
		return
	}
	rows := service.Apply(snap.Rows, q)
	c.JSON(http.StatusOK, reportsResponse{
		Data:      nonNil(rows),
		Total:     len(rows),
		Counts:    aggregate.CountByStatus(snap.Rows),
		FetchedAt: snap.FetchedAt,
	})
}

// UpdateReportStatus handles PATCH /admin/reports/:id/status.
func (h *AdminHandler) UpdateReportStatus(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=reported in_progress resolved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := service.Actor{
		ID:        middleware.GetUserID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	row, err := h.dashboard.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, row)
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "update failed: " + err.Error()})
	}
}

// ReportHistory handles GET /admin/reports/:id/history.
func (h *AdminHandler) ReportHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "status history is not kept by this data source"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	list, err := h.history.StatusHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.dashboard.Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load stats: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func parseQuery(c *gin.Context) (service.Query, error) {
	q := service.Query{
		Status:   c.DefaultQuery("status", domain.StatusAll),
		Category: c.Query("category"),
	}
	if q.Status != domain.StatusAll && !domain.IsValidStatus(q.Status) {
		return q, errors.New("invalid status filter")
	}
	if q.Category != "" && !domain.IsValidCategory(q.Category) {
		return q, errors.New("invalid category filter")
	}
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		return q, nil
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		return q, errors.New("lat and lng must both be numbers")
	}
	p := location.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return q, err
	}
	radius := domain.DefaultSearchRadiusKm
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 || r > domain.MaxSearchRadiusKm() {
			return q, fmt.Errorf("radius_km must be between 0 and %g", domain.MaxSearchRadiusKm())
		}
		radius = r
	}
	q.Near = &p
	q.RadiusKm = radius
	return q, nil
}

func nonNil(rows []models.ReportWithVotes) []models.ReportWithVotes {
	if rows == nil {
		return []models.ReportWithVotes{}
	}
	return rows
}
