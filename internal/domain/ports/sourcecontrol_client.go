package ports

import (
	"context"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// SourceControlClient is the set of source-control operations the core
// drives (component C2 in spec.md §2). One implementation per provider;
// the IssueStateMachine selects one by entities.Provider through
// ProviderRegistry.
type SourceControlClient interface {
	Comment(ctx context.Context, repositoryID uint64, number int, body string) error
	AddLabel(ctx context.Context, repositoryID uint64, number int, label string) error
	RemoveLabel(ctx context.Context, repositoryID uint64, number int, label string) error
	Assign(ctx context.Context, repositoryID uint64, number int, userID int64) error
	Unassign(ctx context.Context, repositoryID uint64, number int, userID int64) error
	// ResolveUsername returns the source-control handle for a user id.
	ResolveUsername(ctx context.Context, userID int64) (string, error)
	UpdateTitle(ctx context.Context, repositoryID uint64, number int, title string) error
	// MarkPaid is the "mark as paid" operation invoked on a successful close
	// (spec.md §4.3 `close`). The GitHub and GitLab implementations are
	// no-ops; the PAID label is added by the IssueStateMachine's label swap.
	MarkPaid(ctx context.Context, repositoryID uint64, number int) error
}

// ProviderRegistry resolves the SourceControlClient to use for a given provider.
type ProviderRegistry interface {
	For(provider entities.Provider) (SourceControlClient, error)
}
