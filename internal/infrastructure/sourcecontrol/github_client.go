// Package sourcecontrol implements the per-provider SourceControlClient
// adapters (component C2, spec.md §2/§6).
package sourcecontrol

import (
	"context"
	"sync"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

// GitHubClient adapts google/go-github's typed IssuesService to
// ports.SourceControlClient. RepositoryID is the numeric GitHub repository
// id; owner/repo name resolution happens lazily via the API's
// repository-by-id lookup, then is cached for the process lifetime since
// multiple handler goroutines may resolve the same repository concurrently.
type GitHubClient struct {
	gh      *github.Client
	reposMu sync.RWMutex
	repos   map[uint64]repoRef
}

type repoRef struct {
	owner string
	name  string
}

// NewGitHubClient builds a GitHubClient authenticated with a personal
// access token or app token.
func NewGitHubClient(token, baseURL string) (*GitHubClient, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	gh := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, domainerrors.Fatal("configure github enterprise base url", err)
		}
	}
	return &GitHubClient{gh: gh, repos: make(map[uint64]repoRef)}, nil
}

func (c *GitHubClient) resolve(ctx context.Context, repositoryID uint64) (repoRef, error) {
	c.reposMu.RLock()
	ref, ok := c.repos[repositoryID]
	c.reposMu.RUnlock()
	if ok {
		return ref, nil
	}
	repo, _, err := c.gh.Repositories.GetByID(ctx, int64(repositoryID))
	if err != nil {
		return repoRef{}, domainerrors.ExternalAPI("resolve github repository id", err)
	}
	ref = repoRef{owner: repo.GetOwner().GetLogin(), name: repo.GetName()}
	c.reposMu.Lock()
	c.repos[repositoryID] = ref
	c.reposMu.Unlock()
	return ref, nil
}

// Comment implements ports.SourceControlClient.
func (c *GitHubClient) Comment(ctx context.Context, repositoryID uint64, number int, body string) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.CreateComment(ctx, ref.owner, ref.name, number, &github.IssueComment{Body: &body})
	if err != nil {
		return domainerrors.ExternalAPI("post github comment", err)
	}
	return nil
}

// AddLabel implements ports.SourceControlClient.
func (c *GitHubClient) AddLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.AddLabelsToIssue(ctx, ref.owner, ref.name, number, []string{label})
	if err != nil {
		return domainerrors.ExternalAPI("add github label", err)
	}
	return nil
}

// RemoveLabel implements ports.SourceControlClient.
func (c *GitHubClient) RemoveLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	_, err = c.gh.Issues.RemoveLabelForIssue(ctx, ref.owner, ref.name, number, label)
	if err != nil {
		return domainerrors.ExternalAPI("remove github label", err)
	}
	return nil
}

// Assign implements ports.SourceControlClient.
func (c *GitHubClient) Assign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	handle, err := c.ResolveUsername(ctx, userID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.AddAssignees(ctx, ref.owner, ref.name, number, []string{handle})
	if err != nil {
		return domainerrors.ExternalAPI("assign github issue", err)
	}
	return nil
}

// Unassign implements ports.SourceControlClient.
func (c *GitHubClient) Unassign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	handle, err := c.ResolveUsername(ctx, userID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.RemoveAssignees(ctx, ref.owner, ref.name, number, []string{handle})
	if err != nil {
		return domainerrors.ExternalAPI("unassign github issue", err)
	}
	return nil
}

// ResolveUsername implements ports.SourceControlClient.
func (c *GitHubClient) ResolveUsername(ctx context.Context, userID int64) (string, error) {
	user, _, err := c.gh.Users.GetByID(ctx, userID)
	if err != nil {
		return "", domainerrors.ExternalAPI("resolve github user id", err)
	}
	return user.GetLogin(), nil
}

// UpdateTitle implements ports.SourceControlClient.
func (c *GitHubClient) UpdateTitle(ctx context.Context, repositoryID uint64, number int, title string) error {
	ref, err := c.resolve(ctx, repositoryID)
	if err != nil {
		return err
	}
	_, _, err = c.gh.Issues.Edit(ctx, ref.owner, ref.name, number, &github.IssueRequest{Title: &title})
	if err != nil {
		return domainerrors.ExternalAPI("update github issue title", err)
	}
	return nil
}

// MarkPaid implements ports.SourceControlClient. GitHub has no dedicated
// "paid" marker, so this is the configured PAID label only, applied by the
// caller's own AddLabel call; this method exists so both providers satisfy
// the same interface shape without a type switch in the state machine.
func (c *GitHubClient) MarkPaid(ctx context.Context, repositoryID uint64, number int) error {
	return nil
}

var _ ports.SourceControlClient = (*GitHubClient)(nil)
