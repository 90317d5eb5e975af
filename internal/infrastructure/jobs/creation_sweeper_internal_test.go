package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

type fakeIssueRepo struct {
	stuck      []*entities.Issue
	scanErr    error
	updated    []*entities.Issue
	updateErrs map[uuid.UUID]error
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *entities.Issue) error { return nil }

func (f *fakeIssueRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Issue, error) {
	return nil, nil
}

func (f *fakeIssueRepo) GetByKey(ctx context.Context, provider entities.Provider, repositoryID uint64, number int) (*entities.Issue, error) {
	return nil, nil
}

func (f *fakeIssueRepo) Update(ctx context.Context, issue *entities.Issue) error {
	if err, ok := f.updateErrs[issue.ID]; ok {
		return err
	}
	f.updated = append(f.updated, issue)
	return nil
}

func (f *fakeIssueRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeIssueRepo) ScanStuckPending(ctx context.Context, olderThanSeconds int64) ([]*entities.Issue, error) {
	return f.stuck, f.scanErr
}

func TestCreationSweeper_Sweep_MarksStuckIssuesFailed(t *testing.T) {
	stuckID := uuid.New()
	repo := &fakeIssueRepo{
		stuck: []*entities.Issue{{ID: stuckID, Status: entities.IssueStatusChallengeCreationPending}},
	}
	s := NewCreationSweeper(repo, time.Minute, time.Hour)

	s.sweep(context.Background())

	assert.Len(t, repo.updated, 1)
	assert.Equal(t, entities.IssueStatusChallengeCreationFailed, repo.updated[0].Status)
}

func TestCreationSweeper_Sweep_NoStuckRows_NoUpdates(t *testing.T) {
	repo := &fakeIssueRepo{}
	s := NewCreationSweeper(repo, time.Minute, time.Hour)

	s.sweep(context.Background())

	assert.Empty(t, repo.updated)
}

func TestCreationSweeper_Sweep_ScanError_NoPanic(t *testing.T) {
	repo := &fakeIssueRepo{scanErr: assertErr()}
	s := NewCreationSweeper(repo, time.Minute, time.Hour)

	s.sweep(context.Background())

	assert.Empty(t, repo.updated)
}

func TestCreationSweeper_StartStop(t *testing.T) {
	repo := &fakeIssueRepo{}
	s := NewCreationSweeper(repo, time.Minute, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop in time")
	}
}

func assertErr() error { return context.DeadlineExceeded }
