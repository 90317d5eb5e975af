package jobs

import (
	"context"
	"log"
	"time"

	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
)

// CreationSweeper implements the stale creation-pending sweep
// (SPEC_FULL.md §4.9): a row left in challenge_creation_pending past
// staleAfter means the process crashed between "insert" and "success"
// without the normal error path ever running, so nothing ever delegated it
// to RetryService. The sweeper is the backstop that notices and flips it
// to challenge_creation_failed so it surfaces instead of sitting unseen.
type CreationSweeper struct {
	repo       domainrepos.IssueRepository
	staleAfter time.Duration
	interval   time.Duration
	stop       chan struct{}
}

// NewCreationSweeper builds a sweeper scanning repo every interval for rows
// stuck in challenge_creation_pending for longer than staleAfter.
func NewCreationSweeper(repo domainrepos.IssueRepository, staleAfter, interval time.Duration) *CreationSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CreationSweeper{repo: repo, staleAfter: staleAfter, interval: interval, stop: make(chan struct{})}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *CreationSweeper) Start(ctx context.Context) {
	log.Println("🕐 Starting creation-pending sweeper...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Creation-pending sweeper stopped (context cancelled)")
			return
		case <-s.stop:
			log.Println("⏹️ Creation-pending sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop halts the sweep loop.
func (s *CreationSweeper) Stop() {
	close(s.stop)
}

func (s *CreationSweeper) sweep(ctx context.Context) {
	stuck, err := s.repo.ScanStuckPending(ctx, int64(s.staleAfter.Seconds()))
	if err != nil {
		log.Printf("❌ Error scanning stuck creation-pending issues: %v", err)
		return
	}
	if len(stuck) == 0 {
		return
	}
	log.Printf("🔄 Found %d stuck challenge_creation_pending issues, marking failed...", len(stuck))
	marked := 0
	for _, issue := range stuck {
		issue.Status = entities.IssueStatusChallengeCreationFailed
		if err := s.repo.Update(ctx, issue); err != nil {
			log.Printf("❌ Error marking issue %s challenge_creation_failed: %v", issue.ID, err)
			continue
		}
		marked++
	}
	log.Printf("✅ Marked %d issues challenge_creation_failed", marked)
}
