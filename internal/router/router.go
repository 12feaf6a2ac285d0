package router

import (
	"context"
	"net/http"

	"civicadmin/config"
	"civicadmin/internal/handler"
	"civicadmin/internal/logging"
	"civicadmin/internal/middleware"
	"civicadmin/internal/service"
	"civicadmin/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators the routes are built from.
type Deps struct {
	Dashboard *service.Dashboard
	// History is nil when the data source keeps no audit trail.
	History handler.StatusHistory
	Hub     *ws.Hub
	Limiter *middleware.InMemoryRateLimiter
	Log     *zap.Logger
}

func Setup(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(deps.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	adminHandler := handler.NewAdminHandler(deps.Dashboard, deps.History)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()
	// Runs after auth so admins are limited per user rather than per IP.
	limitMw := func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limitMw = middleware.RateLimit(deps.Limiter)
	}

	api := r.Group("/api/v1")
	{
		admin := api.Group("/admin")
		admin.Use(authMw, adminMw, limitMw)
		{
			admin.GET("/reports", adminHandler.ListReports)
			admin.POST("/reports/refresh", adminHandler.RefreshReports)
			admin.PATCH("/reports/:id/status", adminHandler.UpdateReportStatus)
			admin.GET("/reports/:id/history", adminHandler.ReportHistory)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	r.GET("/ws/dashboard", limitMw, ws.UpgradeDashboardWS(&cfg.JWT, deps.Hub, initialSnapshot(deps.Dashboard), deps.Log))

	return r
}

// initialSnapshot greets a new feed connection with the current counts.
func initialSnapshot(d *service.Dashboard) ws.InitialState {
	return func(ctx context.Context) (interface{}, error) {
		snap, err := d.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return service.SnapshotEvent(snap), nil
	}
}
