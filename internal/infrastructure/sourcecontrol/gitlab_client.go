package sourcecontrol

import (
	"context"

	"github.com/xanzy/go-gitlab"

	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

// GitLabClient adapts xanzy/go-gitlab's IssuesService/NotesService to
// ports.SourceControlClient. RepositoryID is GitLab's numeric project id,
// used directly as go-gitlab's project-id parameter (it accepts either the
// numeric id or the namespaced path).
type GitLabClient struct {
	gl *gitlab.Client
}

// NewGitLabClient builds a GitLabClient authenticated with a personal or
// project access token.
func NewGitLabClient(token, baseURL string) (*GitLabClient, error) {
	opts := []gitlab.ClientOptionFunc{}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	gl, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, domainerrors.Fatal("build gitlab client", err)
	}
	return &GitLabClient{gl: gl}, nil
}

// Comment implements ports.SourceControlClient.
func (c *GitLabClient) Comment(ctx context.Context, repositoryID uint64, number int, body string) error {
	_, _, err := c.gl.Notes.CreateIssueNote(int(repositoryID), number, &gitlab.CreateIssueNoteOptions{Body: &body})
	if err != nil {
		return domainerrors.ExternalAPI("post gitlab comment", err)
	}
	return nil
}

// AddLabel implements ports.SourceControlClient.
func (c *GitLabClient) AddLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	labels := gitlab.Labels{label}
	_, _, err := c.gl.Issues.UpdateIssue(int(repositoryID), number, &gitlab.UpdateIssueOptions{AddLabels: &labels})
	if err != nil {
		return domainerrors.ExternalAPI("add gitlab label", err)
	}
	return nil
}

// RemoveLabel implements ports.SourceControlClient.
func (c *GitLabClient) RemoveLabel(ctx context.Context, repositoryID uint64, number int, label string) error {
	labels := gitlab.Labels{label}
	_, _, err := c.gl.Issues.UpdateIssue(int(repositoryID), number, &gitlab.UpdateIssueOptions{RemoveLabels: &labels})
	if err != nil {
		return domainerrors.ExternalAPI("remove gitlab label", err)
	}
	return nil
}

// Assign implements ports.SourceControlClient.
func (c *GitLabClient) Assign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	ids := []int{int(userID)}
	_, _, err := c.gl.Issues.UpdateIssue(int(repositoryID), number, &gitlab.UpdateIssueOptions{AssigneeIDs: &ids})
	if err != nil {
		return domainerrors.ExternalAPI("assign gitlab issue", err)
	}
	return nil
}

// Unassign implements ports.SourceControlClient.
func (c *GitLabClient) Unassign(ctx context.Context, repositoryID uint64, number int, userID int64) error {
	ids := []int{}
	_, _, err := c.gl.Issues.UpdateIssue(int(repositoryID), number, &gitlab.UpdateIssueOptions{AssigneeIDs: &ids})
	if err != nil {
		return domainerrors.ExternalAPI("unassign gitlab issue", err)
	}
	return nil
}

// ResolveUsername implements ports.SourceControlClient.
func (c *GitLabClient) ResolveUsername(ctx context.Context, userID int64) (string, error) {
	user, _, err := c.gl.Users.GetUser(int(userID), gitlab.GetUsersOptions{})
	if err != nil {
		return "", domainerrors.ExternalAPI("resolve gitlab user id", err)
	}
	return user.Username, nil
}

// UpdateTitle implements ports.SourceControlClient.
func (c *GitLabClient) UpdateTitle(ctx context.Context, repositoryID uint64, number int, title string) error {
	_, _, err := c.gl.Issues.UpdateIssue(int(repositoryID), number, &gitlab.UpdateIssueOptions{Title: &title})
	if err != nil {
		return domainerrors.ExternalAPI("update gitlab issue title", err)
	}
	return nil
}

// MarkPaid implements ports.SourceControlClient. GitLab has no dedicated
// "paid" marker either; see GitHubClient.MarkPaid.
func (c *GitLabClient) MarkPaid(ctx context.Context, repositoryID uint64, number int) error {
	return nil
}

var _ ports.SourceControlClient = (*GitLabClient)(nil)
