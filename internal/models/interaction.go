package models

import (
	"time"

	"civicadmin/internal/domain"
)

// Interaction is a single vote cast by a user against a report.
type Interaction struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ReportID        string    `gorm:"size:36;not null;index" json:"report_id"`
	UserID          string    `gorm:"size:36;not null;index" json:"user_id"`
	InteractionType string    `gorm:"size:20;not null" json:"interaction_type"` // upvote, downvote
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Interaction) TableName() string {
	return "interactions"
}

func (i *Interaction) IsUpvote() bool   { return i.InteractionType == domain.InteractionUpvote }
func (i *Interaction) IsDownvote() bool { return i.InteractionType == domain.InteractionDownvote }
