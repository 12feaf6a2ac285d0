package models

import (
	"time"
)

type Report struct {
	ID                      string    `gorm:"primaryKey;size:36" json:"id"`
	UserID                  string    `gorm:"size:36;not null;index" json:"user_id"`
	Title                   string    `gorm:"size:200;not null" json:"title"`
	Description             *string   `gorm:"type:text" json:"description"`
	Category                string    `gorm:"size:20;not null;index" json:"category"`
	Status                  string    `gorm:"size:20;not null;default:'reported';index" json:"status"`
	Latitude                *float64  `json:"latitude"`
	Longitude               *float64  `json:"longitude"`
	LocationName            *string   `gorm:"size:255" json:"location_name"`
	PhotoURLs               []string  `gorm:"serializer:json;type:text" json:"photo_urls"`
	EstimatedCompletionDays *int      `json:"estimated_completion_days"`
	IsAnonymous             bool      `gorm:"not null;default:false" json:"is_anonymous"`
	CreatedAt               time.Time `gorm:"index" json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// HasLocation reports whether both coordinates are present.
func (r *Report) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    string    `gorm:"size:36;index" json:"actor_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resource_id"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
