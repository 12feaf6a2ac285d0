package repository

import (
	"context"
	"encoding/json"
	"time"

	"civicadmin/internal/models"

	"gorm.io/gorm"
)

// AdminRepository is the direct-SQL data source for the dashboard. It reads
// the same three tables the managed backend exposes.
type AdminRepository struct {
	reports      *ReportRepository
	interactions *InteractionRepository
	profiles     *ProfileRepository
	audit        *AuditLogRepository
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{
		reports:      NewReportRepository(db),
		interactions: NewInteractionRepository(db),
		profiles:     NewProfileRepository(db),
		audit:        NewAuditLogRepository(db),
	}
}

func (r *AdminRepository) ListReports(ctx context.Context) ([]models.Report, error) {
	return r.reports.ListAll(ctx)
}

func (r *AdminRepository) ListInteractions(ctx context.Context) ([]models.Interaction, error) {
	return r.interactions.ListAll(ctx)
}

func (r *AdminRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return r.profiles.ListAll(ctx)
}

func (r *AdminRepository) UpdateReportStatus(ctx context.Context, id, status string, at time.Time) (*models.Report, error) {
	return r.reports.UpdateStatus(ctx, id, status, at)
}

// RecordStatusChange writes an audit entry for a status transition.
func (r *AdminRepository) RecordStatusChange(ctx context.Context, actorID, reportID, from, to, ip, userAgent string) error {
	meta, _ := json.Marshal(map[string]string{"from": from, "to": to})
	return r.audit.Create(ctx, &models.AuditLog{
		ActorID:    actorID,
		Action:     "report.status_changed",
		Resource:   "report",
		ResourceID: reportID,
		IP:         ip,
		UserAgent:  userAgent,
		Metadata:   string(meta),
	})
}

func (r *AdminRepository) StatusHistory(ctx context.Context, reportID string, limit int) ([]models.AuditLog, error) {
	return r.audit.ListForResource(ctx, "report", reportID, limit)
}
