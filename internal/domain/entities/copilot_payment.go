package entities

import (
	"time"

	"github.com/google/uuid"
)

// CopilotPaymentStatus reuses the IssueStatus strings the payment pipeline
// needs, plus challenge_creation_retried, which only payment rows use; kept
// distinct because a payment row's status vocabulary does not include the
// assignment-related states.
type CopilotPaymentStatus string

const (
	CopilotPaymentStatusPending         CopilotPaymentStatus = "challenge_creation_pending"
	CopilotPaymentStatusRetried         CopilotPaymentStatus = "challenge_creation_retried"
	CopilotPaymentStatusActive          CopilotPaymentStatus = "challenge_creation_successful"
	CopilotPaymentStatusCompleted       CopilotPaymentStatus = "challenge_payment_successful"
)

// CopilotPayment is one row of a copilot's pay, inserted/updated/deleted by
// an upstream admin tool. Multiple rows may share a ChallengeID — they are
// coalesced into a single challenge (invariant 4 in spec.md §3).
type CopilotPayment struct {
	ID          uuid.UUID            `json:"id"`
	ProjectID   uuid.UUID            `json:"project"`
	Username    string               `json:"username"`
	Amount      int64                `json:"amount"`
	Description string               `json:"description"`
	ChallengeID *string              `json:"challengeId,omitempty"`
	Closed      bool                 `json:"closed"`
	Status      CopilotPaymentStatus `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}
