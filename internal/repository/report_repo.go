package repository

import (
	"context"
	"time"

	"civicadmin/internal/domain"
	"civicadmin/internal/models"

	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// ListAll returns every report, newest first.
func (r *ReportRepository) ListAll(ctx context.Context) ([]models.Report, error) {
	list := []models.Report{}
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var rep models.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// UpdateStatus sets status and updated_at on a single report and returns the
// stored row.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) (*models.Report, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"status": status, "updated_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrReportNotFound
	}
	return r.GetByID(ctx, id)
}

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Create(ctx context.Context, in *models.Interaction) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *InteractionRepository) ListAll(ctx context.Context) ([]models.Interaction, error) {
	list := []models.Interaction{}
	err := r.db.WithContext(ctx).Find(&list).Error
	return list, err
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]models.Profile, error) {
	list := []models.Profile{}
	err := r.db.WithContext(ctx).Find(&list).Error
	return list, err
}

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListForResource returns audit entries for one resource, newest first.
func (r *AuditLogRepository) ListForResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource = ? AND resource_id = ?", resource, resourceID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
