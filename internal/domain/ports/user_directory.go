package ports

import (
	"context"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// UserDirectory maps (provider, source-control user id) to a contest-platform
// handle, and resolves a repository's copilot/owner (component C3 in
// spec.md §2). A NotFound error from ResolveHandle means the user has no
// contest handle; IssueStateMachine.Assign answers it with a sign-up comment
// and an unassign.
type UserDirectory interface {
	ResolveHandle(ctx context.Context, provider entities.Provider, sourceControlUserID int64) (string, error)
	// ResolveCopilot returns the contest handle configured as the
	// repository's copilot, from Project.Copilot.
	ResolveCopilot(ctx context.Context, project *entities.Project) (string, error)
}
