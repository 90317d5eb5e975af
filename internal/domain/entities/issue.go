package entities

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies which source-control platform an Issue came from.
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
)

// IssueStatus is the lifecycle state of a ticket<->challenge binding.
type IssueStatus string

const (
	IssueStatusChallengeCreationPending   IssueStatus = "challenge_creation_pending"
	IssueStatusChallengeCreationSuccess   IssueStatus = "challenge_creation_successful"
	IssueStatusChallengeCreationFailed    IssueStatus = "challenge_creation_failed"
	IssueStatusChallengePaymentPending    IssueStatus = "challenge_payment_pending"
	IssueStatusChallengePaymentSuccessful IssueStatus = "challenge_payment_successful"
	IssueStatusChallengePaymentFailed     IssueStatus = "challenge_payment_failed"
)

// Issue is the durable record of a ticket<->challenge binding.
//
// Uniqueness: (Provider, RepositoryID, Number) identifies at most one active
// row at a time (invariant 1 in spec.md §3).
type Issue struct {
	ID             uuid.UUID   `json:"id"`
	Provider       Provider    `json:"provider"`
	RepositoryID   uint64      `json:"repositoryId"`
	Number         int         `json:"number"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	Prizes         []int       `json:"prizes"`
	Labels         []string    `json:"labels"`
	Assignee       *string     `json:"assignee,omitempty"`
	AssignedAt     *time.Time  `json:"assignedAt,omitempty"`
	ChallengeID    *string     `json:"challengeId,omitempty"`
	Status         IssueStatus `json:"status"`
	PaymentSuccess bool        `json:"-"` // sticky "paymentSuccessful" flag carried across retries, not persisted
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// TCXReady reports whether any label carries the configured tcx_* prefix.
// It is derived at preprocessing time and never persisted (spec.md §3).
func (i *Issue) TCXReady(prefix string) bool {
	for _, l := range i.Labels {
		if len(l) >= len(prefix) && l[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// HasLabel reports whether label is present (case-sensitive, per spec.md §6).
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// WithoutLabel returns i.Labels with label removed, order preserved.
func (i *Issue) WithoutLabel(label string) []string {
	out := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

// ReplaceLabel removes `from` and adds `to` (if not already present).
func ReplaceLabel(labels []string, from, to string) []string {
	out := make([]string, 0, len(labels)+1)
	found := false
	for _, l := range labels {
		if l == from {
			continue
		}
		if l == to {
			found = true
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, to)
	}
	return out
}

// PrizesEqual compares two prize vectors for byte-for-byte equality.
func PrizesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
