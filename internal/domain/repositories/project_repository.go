package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// ProjectRepository reads the externally owned Project table (spec.md §3).
// The core never writes Project rows.
type ProjectRepository interface {
	GetByRepoURL(ctx context.Context, repoURL string) (*entities.Project, error)
	// GetByID looks up a Project by its primary key, for payment events
	// which carry a project id rather than a repository URL.
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error)
}
