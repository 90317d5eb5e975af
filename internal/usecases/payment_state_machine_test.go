package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/internal/usecases"
)

func newPaymentStateMachine(payments *mockCopilotPaymentRepository, projects *mockProjectRepository, contest *mockContestClient) *usecases.PaymentStateMachine {
	return usecases.NewPaymentStateMachine(payments, projects, contest)
}

func TestPaymentStateMachine_Add_NoSiblings_CreatesNewChallenge(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	projectID := uuid.New()
	ev := &entities.PaymentEvent{
		Event: entities.EventPaymentAdd,
		Data: entities.PaymentEventData{
			Payment: entities.PaymentRef{Project: projectID.String(), Username: "dev1", Amount: 250, Description: "work done"},
		},
	}
	project := &entities.Project{ID: projectID, TCDirectID: 7, Title: "Widgets"}

	payments.On("FindOpenByProjectUser", mock.Anything, projectID, "dev1").Return([]*entities.CopilotPayment{}, nil)
	payments.On("Create", mock.Anything, mock.AnythingOfType("*entities.CopilotPayment")).Return(nil)
	projects.On("GetByID", mock.Anything, projectID).Return(project, nil)
	contest.On("CreateChallenge", mock.Anything, mock.Anything).Return("challenge-9", nil)
	contest.On("AddResource", mock.Anything, "challenge-9", "dev1", ports.RoleCopilot).Return(nil)
	contest.On("ActivateChallenge", mock.Anything, "challenge-9").Return(nil)
	payments.On("Update", mock.Anything, mock.AnythingOfType("*entities.CopilotPayment")).Return(nil)

	err := sm.Add(context.Background(), ev)

	assert.NoError(t, err)
	payments.AssertExpectations(t)
	contest.AssertExpectations(t)
}

func TestPaymentStateMachine_Add_SiblingHasChallenge_Coalesces(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	projectID := uuid.New()
	ev := &entities.PaymentEvent{
		Data: entities.PaymentEventData{
			Payment: entities.PaymentRef{Project: projectID.String(), Username: "dev1", Amount: 100},
		},
	}
	existingChallenge := "challenge-existing"
	siblings := []*entities.CopilotPayment{{ChallengeID: &existingChallenge}}

	payments.On("FindOpenByProjectUser", mock.Anything, projectID, "dev1").Return(siblings, nil)
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.CopilotPayment) bool {
		return p.ChallengeID != nil && *p.ChallengeID == existingChallenge && p.Status == entities.CopilotPaymentStatusActive
	})).Return(nil)

	err := sm.Add(context.Background(), ev)

	assert.NoError(t, err)
	contest.AssertNotCalled(t, "CreateChallenge", mock.Anything, mock.Anything)
}

func TestPaymentStateMachine_Add_SiblingPending_Reschedules(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	projectID := uuid.New()
	ev := &entities.PaymentEvent{
		Data: entities.PaymentEventData{
			Payment: entities.PaymentRef{Project: projectID.String(), Username: "dev1", Amount: 100},
		},
	}
	siblings := []*entities.CopilotPayment{{Status: entities.CopilotPaymentStatusPending}}
	payments.On("FindOpenByProjectUser", mock.Anything, projectID, "dev1").Return(siblings, nil)

	err := sm.Add(context.Background(), ev)

	assert.Error(t, err)
	assert.True(t, domainerrors.KindOf(err).Retryable())
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentStateMachine_Add_InvalidProjectID(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	ev := &entities.PaymentEvent{Data: entities.PaymentEventData{Payment: entities.PaymentRef{Project: "not-a-uuid"}}}

	err := sm.Add(context.Background(), ev)

	assert.Error(t, err)
	assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
}

func TestPaymentStateMachine_Update_RerendersFromOpenRows(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	ev := &entities.PaymentEvent{Data: entities.PaymentEventData{Payment: entities.PaymentRef{ChallengeUUID: "challenge-1"}}}
	rows := []*entities.CopilotPayment{
		{Amount: 100, Description: "first"},
		{Amount: 200, Description: "second"},
	}
	payments.On("FindOpenByChallengeID", mock.Anything, "challenge-1").Return(rows, nil)
	contest.On("UpdateChallenge", mock.Anything, "challenge-1", mock.MatchedBy(func(in ports.UpdateChallengeInput) bool {
		return in.Prizes[0] == 300 && *in.Description == "first\nsecond"
	})).Return(nil)

	err := sm.Update(context.Background(), ev)

	assert.NoError(t, err)
	contest.AssertExpectations(t)
}

func TestPaymentStateMachine_Update_NoOpenRows_NoRemoteCall(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	ev := &entities.PaymentEvent{Data: entities.PaymentEventData{Payment: entities.PaymentRef{ChallengeUUID: "challenge-1"}}}
	payments.On("FindOpenByChallengeID", mock.Anything, "challenge-1").Return([]*entities.CopilotPayment{}, nil)

	err := sm.Update(context.Background(), ev)

	assert.NoError(t, err)
	contest.AssertNotCalled(t, "UpdateChallenge", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentStateMachine_CheckUpdates_ClosesCompletedChallenges(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	ev := &entities.PaymentEvent{Data: entities.PaymentEventData{Copilot: entities.CopilotRef{Handle: "copilot-1"}}}
	challengeID := "challenge-5"
	rows := []*entities.CopilotPayment{{ChallengeID: &challengeID}}

	payments.On("FindOpenByOwnerOrCopilot", mock.Anything, "copilot-1").Return(rows, nil)
	contest.On("GetChallenge", mock.Anything, challengeID).Return(&ports.Challenge{ID: challengeID, CurrentStatus: ports.ChallengeStatusCompleted}, nil)
	payments.On("CloseByChallengeID", mock.Anything, challengeID).Return(nil)

	err := sm.CheckUpdates(context.Background(), ev)

	assert.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestPaymentStateMachine_CheckUpdates_EmptyHandle_NoOp(t *testing.T) {
	payments := &mockCopilotPaymentRepository{}
	projects := &mockProjectRepository{}
	contest := &mockContestClient{}
	sm := newPaymentStateMachine(payments, projects, contest)

	err := sm.CheckUpdates(context.Background(), &entities.PaymentEvent{})

	assert.NoError(t, err)
	payments.AssertNotCalled(t, "FindOpenByOwnerOrCopilot", mock.Anything, mock.Anything)
}
