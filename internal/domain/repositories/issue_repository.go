package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// IssueRepository is the durable Store surface for Issue rows (component C4
// in spec.md §2).
type IssueRepository interface {
	Create(ctx context.Context, issue *entities.Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Issue, error)
	// GetByKey looks up the unique (provider, repositoryId, number) row.
	GetByKey(ctx context.Context, provider entities.Provider, repositoryID uint64, number int) (*entities.Issue, error)
	Update(ctx context.Context, issue *entities.Issue) error
	// Delete performs the logical delete used by the recreate flow and by
	// ensureChallengeExists when it erases a stale creation_failed row.
	Delete(ctx context.Context, id uuid.UUID) error
	// ScanStuckPending returns rows stuck in challenge_creation_pending for
	// longer than olderThanSeconds, for the stale-creation sweeper.
	ScanStuckPending(ctx context.Context, olderThanSeconds int64) ([]*entities.Issue, error)
}
