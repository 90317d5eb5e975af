package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
)

// PaymentStateMachine is the lifecycle of a copilot-payment<->challenge
// binding (component C9, spec.md §4.4), including coalescing multiple
// payment rows into a single challenge.
type PaymentStateMachine struct {
	payments domainrepos.CopilotPaymentRepository
	projects domainrepos.ProjectRepository
	contest  ports.ContestClient
}

// NewPaymentStateMachine builds a PaymentStateMachine.
func NewPaymentStateMachine(payments domainrepos.CopilotPaymentRepository, projects domainrepos.ProjectRepository, contest ports.ContestClient) *PaymentStateMachine {
	return &PaymentStateMachine{payments: payments, projects: projects, contest: contest}
}

// Add implements spec.md §4.4 `add`.
func (sm *PaymentStateMachine) Add(ctx context.Context, ev *entities.PaymentEvent) error {
	projectID, err := uuid.Parse(ev.Data.Payment.Project)
	if err != nil {
		return domainerrors.Validation("invalid project id: " + err.Error())
	}

	payment := &entities.CopilotPayment{
		ProjectID:   projectID,
		Username:    ev.Data.Payment.Username,
		Amount:      ev.Data.Payment.Amount,
		Description: ev.Data.Payment.Description,
		Closed:      ev.Data.Payment.Closed,
		Status:      entities.CopilotPaymentStatusPending,
	}

	siblings, err := sm.payments.FindOpenByProjectUser(ctx, projectID, payment.Username)
	if err != nil {
		return err
	}

	for _, s := range siblings {
		if s.ChallengeID != nil {
			payment.ChallengeID = s.ChallengeID
			payment.Status = entities.CopilotPaymentStatusActive
			return sm.payments.Create(ctx, payment)
		}
	}
	for _, s := range siblings {
		if s.Status == entities.CopilotPaymentStatusPending {
			return domainerrors.InternalDependency("sibling payment creation pending, reschedule")
		}
	}

	if err := sm.payments.Create(ctx, payment); err != nil {
		return err
	}

	project, err := sm.projects.GetByID(ctx, projectID)
	if err != nil {
		payment.Status = entities.CopilotPaymentStatusRetried
		_ = sm.payments.Update(ctx, payment)
		return err
	}

	name := copilotPaymentChallengeName(project.Title, time.Now())
	challengeID, err := sm.contest.CreateChallenge(ctx, ports.CreateChallengeInput{
		Name:             name,
		ProjectID:        project.TCDirectID,
		Description:      payment.Description,
		Prizes:           []int{int(payment.Amount)},
		Task:             false,
		IsCopilotPayment: true,
	})
	if err != nil {
		payment.Status = entities.CopilotPaymentStatusRetried
		_ = sm.payments.Update(ctx, payment)
		return domainerrors.ExternalAPI("create copilot payment challenge", err)
	}

	if err := sm.contest.AddResource(ctx, challengeID, payment.Username, ports.RoleCopilot); err != nil {
		payment.Status = entities.CopilotPaymentStatusRetried
		_ = sm.payments.Update(ctx, payment)
		return domainerrors.ExternalAPI("add copilot resource", err)
	}
	if err := sm.contest.ActivateChallenge(ctx, challengeID); err != nil {
		payment.Status = entities.CopilotPaymentStatusRetried
		_ = sm.payments.Update(ctx, payment)
		return domainerrors.ExternalAPI("activate copilot payment challenge", err)
	}

	payment.ChallengeID = &challengeID
	payment.Status = entities.CopilotPaymentStatusActive
	return sm.payments.Update(ctx, payment)
}

// Update implements spec.md §4.4 `update`.
func (sm *PaymentStateMachine) Update(ctx context.Context, ev *entities.PaymentEvent) error {
	return sm.rerender(ctx, ev.Data.Payment.ChallengeUUID)
}

// Delete implements spec.md §4.4 `delete`.
func (sm *PaymentStateMachine) Delete(ctx context.Context, ev *entities.PaymentEvent) error {
	return sm.rerender(ctx, ev.Data.Payment.ChallengeUUID)
}

// rerender re-derives a challenge's description/prize from every open
// CopilotPayment row still sharing challengeID, and updates the remote
// challenge. An empty set is a cancellation by policy only: the reference
// implementation's cancel endpoint is non-functional, so this logs instead
// of calling ContestClient.CancelChallenge (SPEC_FULL.md §9 Open Question 2).
func (sm *PaymentStateMachine) rerender(ctx context.Context, challengeID string) error {
	if challengeID == "" {
		return nil
	}

	rows, err := sm.payments.FindOpenByChallengeID(ctx, challengeID)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		logger.Info(ctx, "copilot payment challenge has no open rows left, cancellation is policy-only", zap.String("challenge_id", challengeID))
		return nil
	}

	var total int64
	descriptions := make([]string, 0, len(rows))
	for _, r := range rows {
		total += r.Amount
		if r.Description != "" {
			descriptions = append(descriptions, r.Description)
		}
	}

	description := joinDescriptions(descriptions)
	if err := sm.contest.UpdateChallenge(ctx, challengeID, ports.UpdateChallengeInput{
		Description: &description,
		Prizes:      []int{int(total)},
	}); err != nil {
		return domainerrors.ExternalAPI("rerender copilot payment challenge", err)
	}
	return nil
}

func joinDescriptions(descriptions []string) string {
	out := ""
	for i, d := range descriptions {
		if i > 0 {
			out += "\n"
		}
		out += d
	}
	return out
}

// CheckUpdates implements spec.md §4.4 `checkUpdates`.
func (sm *PaymentStateMachine) CheckUpdates(ctx context.Context, ev *entities.PaymentEvent) error {
	handle := ev.Data.Copilot.Handle
	if handle == "" {
		return nil
	}

	rows, err := sm.payments.FindOpenByOwnerOrCopilot(ctx, handle)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		if r.ChallengeID == nil || seen[*r.ChallengeID] {
			continue
		}
		seen[*r.ChallengeID] = true

		challenge, err := sm.contest.GetChallenge(ctx, *r.ChallengeID)
		if err != nil {
			logger.Warn(ctx, "failed to fetch challenge during checkUpdates", zap.String("challenge_id", *r.ChallengeID), zap.Error(err))
			continue
		}
		if challenge.CurrentStatus != ports.ChallengeStatusCompleted {
			continue
		}
		if err := sm.payments.CloseByChallengeID(ctx, *r.ChallengeID); err != nil {
			return err
		}
	}
	return nil
}
