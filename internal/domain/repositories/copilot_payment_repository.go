package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// CopilotPaymentRepository is the durable Store surface for CopilotPayment
// rows (component C4 in spec.md §2).
type CopilotPaymentRepository interface {
	Create(ctx context.Context, payment *entities.CopilotPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CopilotPayment, error)
	Update(ctx context.Context, payment *entities.CopilotPayment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindOpenByProjectUser returns open (non-closed) rows for (project, username).
	FindOpenByProjectUser(ctx context.Context, projectID uuid.UUID, username string) ([]*entities.CopilotPayment, error)
	// FindOpenByChallengeID returns every open row sharing a challenge id.
	FindOpenByChallengeID(ctx context.Context, challengeID string) ([]*entities.CopilotPayment, error)
	// FindOpenByOwnerOrCopilot returns open rows for the projects owned or
	// copiloted by a given handle, for PaymentStateMachine.checkUpdates.
	FindOpenByOwnerOrCopilot(ctx context.Context, handle string) ([]*entities.CopilotPayment, error)
	CloseByChallengeID(ctx context.Context, challengeID string) error
}
