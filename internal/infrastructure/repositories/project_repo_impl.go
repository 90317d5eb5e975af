package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/models"
)

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepository builds the read-only ProjectRepository (component C4).
func NewProjectRepository(db *gorm.DB) domainrepos.ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByRepoURL(ctx context.Context, repoURL string) (*entities.Project, error) {
	var m models.Project
	err := r.db.WithContext(ctx).Where("repo_url = ?", repoURL).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("project not found for repository")
		}
		return nil, err
	}
	return toProjectEntity(&m), nil
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error) {
	var m models.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NotFound("project not found")
		}
		return nil, err
	}
	return toProjectEntity(&m), nil
}

func toProjectEntity(m *models.Project) *entities.Project {
	return &entities.Project{
		ID:                    m.ID,
		RepoURL:               m.RepoURL,
		TCDirectID:            m.TCDirectID,
		Copilot:               m.Copilot,
		Owner:                 m.Owner,
		Title:                 m.Title,
		CreateCopilotPayments: m.CreateCopilotPayments,
		Tags:                  []string(m.Tags),
	}
}
