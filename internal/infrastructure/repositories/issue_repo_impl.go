package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/models"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/idgen"
)

type issueRepo struct {
	db *gorm.DB
}

// NewIssueRepository builds the Store-backed IssueRepository (component C4).
func NewIssueRepository(db *gorm.DB) domainrepos.IssueRepository {
	return &issueRepo{db: db}
}

func (r *issueRepo) Create(ctx context.Context, issue *entities.Issue) error {
	if issue.ID == uuid.Nil {
		issue.ID = idgen.NewID()
	}
	m := toIssueModel(issue)
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	issue.CreatedAt = m.CreatedAt
	issue.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *issueRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Issue, error) {
	var m models.Issue
	err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("issue not found")
		}
		return nil, err
	}
	return toIssueEntity(&m), nil
}

func (r *issueRepo) GetByKey(ctx context.Context, provider entities.Provider, repositoryID uint64, number int) (*entities.Issue, error) {
	var m models.Issue
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("provider = ? AND repository_id = ? AND number = ?", string(provider), repositoryID, number).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("issue not found")
		}
		return nil, err
	}
	return toIssueEntity(&m), nil
}

func (r *issueRepo) Update(ctx context.Context, issue *entities.Issue) error {
	m := toIssueModel(issue)
	m.UpdatedAt = time.Now()
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Issue{}).
		Where("id = ?", issue.ID).
		Updates(map[string]interface{}{
			"title":        m.Title,
			"body":         m.Body,
			"prizes":       m.Prizes,
			"labels":       m.Labels,
			"assignee":     m.Assignee,
			"assigned_at":  m.AssignedAt,
			"challenge_id": m.ChallengeID,
			"status":       m.Status,
			"retry_count":  m.RetryCount,
			"updated_at":   m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("issue not found")
	}
	issue.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *issueRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Delete(&models.Issue{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.NotFound("issue not found")
	}
	return nil
}

func (r *issueRepo) ScanStuckPending(ctx context.Context, olderThanSeconds int64) ([]*entities.Issue, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	var rows []models.Issue
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(entities.IssueStatusChallengeCreationPending), cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Issue, 0, len(rows))
	for i := range rows {
		out = append(out, toIssueEntity(&rows[i]))
	}
	return out, nil
}

func toIssueModel(e *entities.Issue) *models.Issue {
	prizes := make(pq.Int64Array, len(e.Prizes))
	for i, p := range e.Prizes {
		prizes[i] = int64(p)
	}
	return &models.Issue{
		ID:           e.ID,
		Provider:     string(e.Provider),
		RepositoryID: e.RepositoryID,
		Number:       e.Number,
		Title:        e.Title,
		Body:         e.Body,
		Prizes:       prizes,
		Labels:       pq.StringArray(e.Labels),
		Assignee:     null.StringFromPtr(e.Assignee),
		AssignedAt:   null.TimeFromPtr(e.AssignedAt),
		ChallengeID:  null.StringFromPtr(e.ChallengeID),
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toIssueEntity(m *models.Issue) *entities.Issue {
	prizes := make([]int, len(m.Prizes))
	for i, p := range m.Prizes {
		prizes[i] = int(p)
	}
	return &entities.Issue{
		ID:           m.ID,
		Provider:     entities.Provider(m.Provider),
		RepositoryID: m.RepositoryID,
		Number:       m.Number,
		Title:        m.Title,
		Body:         m.Body,
		Prizes:       prizes,
		Labels:       []string(m.Labels),
		Assignee:     m.Assignee.Ptr(),
		AssignedAt:   m.AssignedAt.Ptr(),
		ChallengeID:  m.ChallengeID.Ptr(),
		Status:       entities.IssueStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
