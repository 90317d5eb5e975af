package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
)

func TestCopilotPaymentRepo_CreateAndGetByID(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)
	ctx := context.Background()

	payment := &entities.CopilotPayment{
		ProjectID:   uuid.New(),
		Username:    "copilot-handle",
		Amount:      500,
		Description: "copilot payment for Widgets",
		Status:      entities.CopilotPaymentStatusPending,
	}

	require.NoError(t, repo.Create(ctx, payment))

	got, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "copilot-handle", got.Username)
	assert.Equal(t, int64(500), got.Amount)
	assert.False(t, got.Closed)
}

func TestCopilotPaymentRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.Equal(t, domainerrors.KindNotFound, domainerrors.KindOf(err))
}

func TestCopilotPaymentRepo_FindOpenByProjectUser(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	open := &entities.CopilotPayment{ProjectID: projectID, Username: "alice", Amount: 100, Status: entities.CopilotPaymentStatusPending}
	require.NoError(t, repo.Create(ctx, open))
	closed := &entities.CopilotPayment{ProjectID: projectID, Username: "alice", Amount: 50, Closed: true, Status: entities.CopilotPaymentStatusCompleted}
	require.NoError(t, repo.Create(ctx, closed))
	other := &entities.CopilotPayment{ProjectID: projectID, Username: "bob", Amount: 75, Status: entities.CopilotPaymentStatusPending}
	require.NoError(t, repo.Create(ctx, other))

	rows, err := repo.FindOpenByProjectUser(ctx, projectID, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, open.ID, rows[0].ID)
}

func TestCopilotPaymentRepo_FindOpenByChallengeID(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)
	ctx := context.Background()

	challengeID := "challenge-1"
	row := &entities.CopilotPayment{ProjectID: uuid.New(), Username: "alice", Amount: 100, ChallengeID: &challengeID, Status: entities.CopilotPaymentStatusActive}
	require.NoError(t, repo.Create(ctx, row))

	rows, err := repo.FindOpenByChallengeID(ctx, challengeID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
}

func TestCopilotPaymentRepo_FindOpenByOwnerOrCopilot(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	createProjectTable(t, db)
	repo := NewCopilotPaymentRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	mustExec(t, db, `INSERT INTO projects (id, repo_url, tc_direct_id, copilot, owner) VALUES (?, ?, ?, ?, ?)`,
		projectID.String(), "https://github.com/org/widgets", 99, "copilot-handle", "owner-handle")

	payment := &entities.CopilotPayment{ProjectID: projectID, Username: "alice", Amount: 100, Status: entities.CopilotPaymentStatusPending}
	require.NoError(t, repo.Create(ctx, payment))

	rows, err := repo.FindOpenByOwnerOrCopilot(ctx, "copilot-handle")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = repo.FindOpenByOwnerOrCopilot(ctx, "owner-handle")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = repo.FindOpenByOwnerOrCopilot(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCopilotPaymentRepo_CloseByChallengeID(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)
	ctx := context.Background()

	challengeID := "challenge-2"
	row := &entities.CopilotPayment{ProjectID: uuid.New(), Username: "alice", Amount: 100, ChallengeID: &challengeID, Status: entities.CopilotPaymentStatusActive}
	require.NoError(t, repo.Create(ctx, row))

	require.NoError(t, repo.CloseByChallengeID(ctx, challengeID))

	rows, err := repo.FindOpenByChallengeID(ctx, challengeID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCopilotPaymentRepo_Update_UnknownID_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	createCopilotPaymentTable(t, db)
	repo := NewCopilotPaymentRepository(db)

	err := repo.Update(context.Background(), &entities.CopilotPayment{ID: uuid.New(), Status: entities.CopilotPaymentStatusCompleted})
	assert.Equal(t, domainerrors.KindNotFound, domainerrors.KindOf(err))
}
