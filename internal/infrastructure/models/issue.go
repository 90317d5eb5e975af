package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// Issue is the GORM-mapped row for the durable Issue record (spec.md §3).
// Labels and Prizes use pq array types so a single row round-trips without
// a side table, matching the teacher's handling of small bounded
// collections on Payment-adjacent models. Nullable scalars use null.String /
// null.Time, the repo's convention for "absent" vs "empty" on a scalar column.
type Issue struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Provider     string         `gorm:"type:varchar(20);not null;index:idx_issue_key,unique"`
	RepositoryID uint64         `gorm:"not null;index:idx_issue_key,unique"`
	Number       int            `gorm:"not null;index:idx_issue_key,unique"`
	Title        string         `gorm:"type:varchar(500);not null"`
	Body         string         `gorm:"type:text"`
	Prizes       pq.Int64Array  `gorm:"type:integer[]"`
	Labels       pq.StringArray `gorm:"type:text[]"`
	Assignee     null.String    `gorm:"type:varchar(255)"`
	AssignedAt   null.Time
	ChallengeID  null.String `gorm:"type:varchar(64);index"`
	Status       string      `gorm:"type:varchar(40);not null;index"`
	RetryCount   int         `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Issue) TableName() string { return "issues" }
