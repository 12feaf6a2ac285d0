package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civicadmin/internal/domain"
	"civicadmin/internal/models"
	"civicadmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	reportA = uuid.NewString()
	reportB = uuid.NewString()
)

type stubSource struct {
	reports   []models.Report
	listErr   error
	updateErr error
}

func (s *stubSource) ListReports(ctx context.Context) ([]models.Report, error) {
	return s.reports, s.listErr
}

func (s *stubSource) ListInteractions(ctx context.Context) ([]models.Interaction, error) {
	return []models.Interaction{
		{ID: "i1", ReportID: reportA, UserID: "u9", InteractionType: domain.InteractionUpvote},
		{ID: "i2", ReportID: reportA, UserID: "u8", InteractionType: domain.InteractionUpvote},
		{ID: "i3", ReportID: reportA, UserID: "u7", InteractionType: domain.InteractionDownvote},
	}, nil
}

func (s *stubSource) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return nil, nil
}

func (s *stubSource) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) (*models.Report, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	for _, r := range s.reports {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = at
			return &r, nil
		}
	}
	return nil, domain.ErrReportNotFound
}

type stubHistory struct{}

func (stubHistory) StatusHistory(ctx context.Context, reportID string, limit int) ([]models.AuditLog, error) {
	return []models.AuditLog{{ID: 1, Action: "report.status_changed", ResourceID: reportID}}, nil
}

func setup(src *stubSource, history StatusHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(service.NewDashboard(src, service.Options{}, nil), history)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "admin-1")
		c.Next()
	})
	r.GET("/reports", h.ListReports)
	r.POST("/reports/refresh", h.RefreshReports)
	r.PATCH("/reports/:id/status", h.UpdateReportStatus)
	r.GET("/reports/:id/history", h.ReportHistory)
	r.GET("/stats", h.Stats)
	return r
}

func newStub() *stubSource {
	lat, lng := -1.2921, 36.8219
	return &stubSource{reports: []models.Report{
		{ID: reportA, UserID: "u1", Title: "Pothole on Moi Ave", Category: domain.CategoryPothole, Status: domain.StatusReported, Latitude: &lat, Longitude: &lng},
		{ID: reportB, UserID: "u2", Title: "Burst pipe", Category: domain.CategoryWater, Status: domain.StatusResolved},
	}}
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) reportsResponse {
	t.Helper()
	var resp reportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListReports(t *testing.T) {
	r := setup(newStub(), nil)

	w := do(r, http.MethodGet, "/reports", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, reportA, resp.Data[0].ID)
	assert.Equal(t, 2, resp.Data[0].Upvotes)
	assert.Equal(t, 1, resp.Data[0].Downvotes)
	assert.Equal(t, 2, resp.Counts.Total)
	assert.Equal(t, 1, resp.Counts.Resolved)
	assert.False(t, resp.FetchedAt.IsZero())
}

func TestListReports_Filters(t *testing.T) {
	r := setup(newStub(), nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "?status=all", []string{reportA, reportB}},
		{"status", "?status=resolved", []string{reportB}},
		{"category", "?category=pothole", []string{reportA}},
		{"near", "?lat=-1.29&lng=36.82&radius_km=3", []string{reportA}},
		{"near default radius", "?lat=-1.30&lng=36.85", []string{reportA}},
		{"outside default radius", "?lat=-1.40&lng=36.82", []string{}},
		{"no match", "?status=in_progress", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/reports"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode(t, w)
			ids := []string{}
			for _, row := range resp.Data {
				ids = append(ids, row.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, 2, resp.Counts.Total, "counts cover the whole snapshot")
		})
	}
}

func TestListReports_BadQuery(t *testing.T) {
	r := setup(newStub(), nil)
	for _, q := range []string{"?status=closed", "?category=fire", "?lat=91&lng=0", "?lat=abc&lng=1", "?lat=1", "?lat=1&lng=1&radius_km=-2", "?lat=1&lng=1&radius_km=26", "?lat=1&lng=1&radius_km=far"} {
		w := do(r, http.MethodGet, "/reports"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestListReports_FetchFailure(t *testing.T) {
	src := newStub()
	src.listErr = errors.New("connection refused")
	r := setup(src, nil)

	w := do(r, http.MethodGet, "/reports", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "list reports")
}

func TestRefreshReports(t *testing.T) {
	src := newStub()
	r := setup(src, nil)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/reports", "").Code)

	src.reports = src.reports[:1]
	w := do(r, http.MethodPost, "/reports/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Total)
}

func TestUpdateReportStatus(t *testing.T) {
	r := setup(newStub(), nil)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/reports", "").Code)

	w := do(r, http.MethodPatch, "/reports/"+reportA+"/status", `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var row models.ReportWithVotes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, domain.StatusInProgress, row.Status)
	assert.Equal(t, 2, row.Upvotes)

	list := decode(t, do(r, http.MethodGet, "/reports?status=in_progress", ""))
	require.Len(t, list.Data, 1)
	assert.Equal(t, reportA, list.Data[0].ID)
}

func TestUpdateReportStatus_Errors(t *testing.T) {
	failing := newStub()
	failing.updateErr = errors.New("permission denied")

	tests := []struct {
		name string
		src  *stubSource
		id   string
		body string
		want int
	}{
		{"bad id", newStub(), "not-a-uuid", `{"status":"resolved"}`, http.StatusBadRequest},
		{"bad status", newStub(), reportA, `{"status":"closed"}`, http.StatusBadRequest},
		{"missing body", newStub(), reportA, `{}`, http.StatusBadRequest},
		{"not found", newStub(), uuid.NewString(), `{"status":"resolved"}`, http.StatusNotFound},
		{"remote failure", failing, reportA, `{"status":"resolved"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(setup(tt.src, nil), http.MethodPatch, "/reports/"+tt.id+"/status", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestReportHistory(t *testing.T) {
	w := do(setup(newStub(), nil), http.MethodGet, "/reports/"+reportA+"/history", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = do(setup(newStub(), stubHistory{}), http.MethodGet, "/reports/"+reportA+"/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), reportA)
}

func TestStats(t *testing.T) {
	w := do(setup(newStub(), nil), http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"reported":1,"in_progress":0,"resolved":1}`, w.Body.String())
}
