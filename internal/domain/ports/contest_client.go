// Package ports holds the interfaces the core depends on but does not
// implement: the contest platform, the source-control platforms, the
// user-mapping directory, the message bus, and outbound notifications.
// Concrete adapters live under internal/infrastructure.
package ports

import "context"

// ChallengeStatus mirrors the contest-platform's status vocabulary (spec.md §6).
type ChallengeStatus string

const (
	ChallengeStatusDraft     ChallengeStatus = "Draft"
	ChallengeStatusActive    ChallengeStatus = "Active"
	ChallengeStatusCompleted ChallengeStatus = "Completed"
	ChallengeStatusCanceled  ChallengeStatus = "Canceled"
)

// Resource roles (spec.md §6).
const (
	RoleSubmitter = 1
	RoleCopilot   = 14
)

// CreateChallengeInput is the body of POST /challenges.
type CreateChallengeInput struct {
	Name                  string
	ProjectID             int64
	Description           string
	Prizes                []int
	Task                  bool
	SubmissionGuidelines  string
	IsCopilotPayment      bool // selects the "copilot" vs "placement" prizeSets.type
}

// UpdateChallengeInput is the partial body of PATCH /challenges/{id}. Only
// non-nil fields are sent.
type UpdateChallengeInput struct {
	Status           *ChallengeStatus
	Winners          []Winner
	BillingAccountID *string
	Name             *string
	Description      *string
	Prizes           []int
}

// Winner is one entry of the PATCH .../winners array.
type Winner struct {
	UserID    int64
	Handle    string
	Placement int
}

// Challenge is the subset of GET /challenges/{id} the core consumes.
type Challenge struct {
	ID            string
	CurrentStatus ChallengeStatus
	Name          string
}

// ContestClient is the thin typed wrapper over the contest-platform HTTP API
// (component C1 in spec.md §2).
type ContestClient interface {
	CreateChallenge(ctx context.Context, in CreateChallengeInput) (challengeID string, err error)
	UpdateChallenge(ctx context.Context, challengeID string, in UpdateChallengeInput) error
	ActivateChallenge(ctx context.Context, challengeID string) error
	CloseChallenge(ctx context.Context, challengeID string, winner Winner) error
	CancelChallenge(ctx context.Context, challengeID string) error
	GetChallenge(ctx context.Context, challengeID string) (*Challenge, error)
	AddResource(ctx context.Context, challengeID, memberHandle string, roleID int) error
	RemoveResource(ctx context.Context, challengeID, memberHandle string, roleID int) error
	GetMemberID(ctx context.Context, handle string) (int64, error)
	GetBillingAccountID(ctx context.Context, tcDirectProjectID int64) (string, error)
}
