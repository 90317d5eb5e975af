package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// CopilotPayment is the GORM-mapped row for a copilot pay entry (spec.md §3).
// ChallengeID uses null.String, the repo's convention for a nullable scalar.
type CopilotPayment struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ProjectID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	Username    string      `gorm:"type:varchar(255);not null"`
	Amount      int64       `gorm:"not null"`
	Description string      `gorm:"type:text"`
	ChallengeID null.String `gorm:"type:varchar(64);index"`
	Closed      bool        `gorm:"default:false"`
	Status      string      `gorm:"type:varchar(40);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (CopilotPayment) TableName() string { return "copilot_payments" }

// Project is the GORM-mapped row mirroring the externally-owned project
// configuration (spec.md §3 project fields); this service reads it, it
// never writes it.
type Project struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RepoURL               string    `gorm:"type:varchar(500);not null;uniqueIndex"`
	TCDirectID            int64     `gorm:"not null"`
	Copilot               string    `gorm:"type:varchar(255)"`
	Owner                 string    `gorm:"type:varchar(255)"`
	Title                 string    `gorm:"type:varchar(500)"`
	CreateCopilotPayments bool      `gorm:"default:false"`
	Tags                  pq.StringArray `gorm:"type:text[]"`
}

func (Project) TableName() string { return "projects" }
