package usecases_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

// mockIssueRepository is a testify mock for domainrepos.IssueRepository.
type mockIssueRepository struct {
	mock.Mock
}

func (m *mockIssueRepository) Create(ctx context.Context, issue *entities.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *mockIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Issue), args.Error(1)
}

func (m *mockIssueRepository) GetByKey(ctx context.Context, provider entities.Provider, repositoryID uint64, number int) (*entities.Issue, error) {
	args := m.Called(ctx, provider, repositoryID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Issue), args.Error(1)
}

func (m *mockIssueRepository) Update(ctx context.Context, issue *entities.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *mockIssueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockIssueRepository) ScanStuckPending(ctx context.Context, olderThanSeconds int64) ([]*entities.Issue, error) {
	args := m.Called(ctx, olderThanSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Issue), args.Error(1)
}

// mockProjectRepository is a testify mock for domainrepos.ProjectRepository.
type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) GetByRepoURL(ctx context.Context, repoURL string) (*entities.Project, error) {
	args := m.Called(ctx, repoURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Project), args.Error(1)
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Project), args.Error(1)
}

// mockCopilotPaymentRepository is a testify mock for domainrepos.CopilotPaymentRepository.
type mockCopilotPaymentRepository struct {
	mock.Mock
}

func (m *mockCopilotPaymentRepository) Create(ctx context.Context, payment *entities.CopilotPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockCopilotPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CopilotPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CopilotPayment), args.Error(1)
}

func (m *mockCopilotPaymentRepository) Update(ctx context.Context, payment *entities.CopilotPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockCopilotPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCopilotPaymentRepository) FindOpenByProjectUser(ctx context.Context, projectID uuid.UUID, username string) ([]*entities.CopilotPayment, error) {
	args := m.Called(ctx, projectID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CopilotPayment), args.Error(1)
}

func (m *mockCopilotPaymentRepository) FindOpenByChallengeID(ctx context.Context, challengeID string) ([]*entities.CopilotPayment, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CopilotPayment), args.Error(1)
}

func (m *mockCopilotPaymentRepository) FindOpenByOwnerOrCopilot(ctx context.Context, handle string) ([]*entities.CopilotPayment, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CopilotPayment), args.Error(1)
}

func (m *mockCopilotPaymentRepository) CloseByChallengeID(ctx context.Context, challengeID string) error {
	args := m.Called(ctx, challengeID)
	return args.Error(0)
}

// mockContestClient is a testify mock for ports.ContestClient.
type mockContestClient struct {
	mock.Mock
}

func (m *mockContestClient) CreateChallenge(ctx context.Context, in ports.CreateChallengeInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockContestClient) UpdateChallenge(ctx context.Context, challengeID string, in ports.UpdateChallengeInput) error {
	args := m.Called(ctx, challengeID, in)
	return args.Error(0)
}

func (m *mockContestClient) ActivateChallenge(ctx context.Context, challengeID string) error {
	args := m.Called(ctx, challengeID)
	return args.Error(0)
}

func (m *mockContestClient) CloseChallenge(ctx context.Context, challengeID string, winner ports.Winner) error {
	args := m.Called(ctx, challengeID, winner)
	return args.Error(0)
}

func (m *mockContestClient) CancelChallenge(ctx context.Context, challengeID string) error {
	args := m.Called(ctx, challengeID)
	return args.Error(0)
}

func (m *mockContestClient) GetChallenge(ctx context.Context, challengeID string) (*ports.Challenge, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Challenge), args.Error(1)
}

func (m *mockContestClient) AddResource(ctx context.Context, challengeID, memberHandle string, roleID int) error {
	args := m.Called(ctx, challengeID, memberHandle, roleID)
	return args.Error(0)
}

func (m *mockContestClient) RemoveResource(ctx context.Context, challengeID, memberHandle string, roleID int) error {
	args := m.Called(ctx, challengeID, memberHandle, roleID)
	return args.Error(0)
}

func (m *mockContestClient) GetMemberID(ctx context.Context, handle string) (int64, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockContestClient) GetBillingAccountID(ctx context.Context, tcDirectProjectID int64) (string, error) {
	args := m.Called(ctx, tcDirectProjectID)
	return args.String(0), args.Error(1)
}

// mockSourceControlClient is a testify mock for ports.SourceControlClient.
type mockSourceControlClient struct {
	mock.Mock
}

func (m *mockSourceControlClient) Comment(ctx context.Context, repositoryID uint64, number int, body string) error {
	args := m.Called(ctx, repositoryID, number, body)
	return args.Error(0)
}

func (m *mockSourceControlClient) AddLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	args := m.Called(ctx, repositoryID, number, label)
	return args.Error(0)
}

func (m *mockSourceControlClient) RemoveLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	args := m.Called(ctx, repositoryID, number, label)
	return args.Error(0)
}

func (m *mockSourceControlClient) Assign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	args := m.Called(ctx, repositoryID, number, userID)
	return args.Error(0)
}

func (m *mockSourceControlClient) Unassign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	args := m.Called(ctx, repositoryID, number, userID)
	return args.Error(0)
}

func (m *mockSourceControlClient) ResolveUsername(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockSourceControlClient) UpdateTitle(ctx context.Context, repositoryID uint64, number int, title string) error {
	args := m.Called(ctx, repositoryID, number, title)
	return args.Error(0)
}

func (m *mockSourceControlClient) MarkPaid(ctx context.Context, repositoryID uint64, number int) error {
	args := m.Called(ctx, repositoryID, number)
	return args.Error(0)
}

// stubRegistry routes every provider lookup to a single SourceControlClient,
// enough for these tests since each one exercises a single provider.
type stubRegistry struct {
	client ports.SourceControlClient
	err    error
}

func (r *stubRegistry) For(entities.Provider) (ports.SourceControlClient, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.client, nil
}

// mockUserDirectory is a testify mock for ports.UserDirectory.
type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) ResolveHandle(ctx context.Context, provider entities.Provider, sourceControlUserID int64) (string, error) {
	args := m.Called(ctx, provider, sourceControlUserID)
	return args.String(0), args.Error(1)
}

func (m *mockUserDirectory) ResolveCopilot(ctx context.Context, project *entities.Project) (string, error) {
	args := m.Called(ctx, project)
	return args.String(0), args.Error(1)
}

// mockRetryService is a testify mock for ports.RetryService.
type mockRetryService struct {
	mock.Mock
}

func (m *mockRetryService) Reschedule(ctx context.Context, topic string, rawPayload []byte, cause error) error {
	args := m.Called(ctx, topic, rawPayload, cause)
	return args.Error(0)
}
