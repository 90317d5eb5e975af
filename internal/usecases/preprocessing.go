package usecases

import (
	"context"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/hash"
)

// preprocessed is the common context every IssueStateMachine operation
// starts from (spec.md §4.1 "Preprocessing").
type preprocessed struct {
	Project      *entities.Project
	RepositoryID uint64
	Prizes       []int
	Title        string
	Body         string
	TCXReady     bool
	Copilot      string
}

// preprocessor resolves the Project, parses the prize vector, strips the
// bracket prefix, renders the body, and detects tcx-readiness for a single
// issue event (spec.md §4.1).
type preprocessor struct {
	projects domainrepos.ProjectRepository
	users    userDirectory
	labels   config.SourceControlConfig
}

func newPreprocessor(projects domainrepos.ProjectRepository, users userDirectory, labels config.SourceControlConfig) *preprocessor {
	return &preprocessor{projects: projects, users: users, labels: labels}
}

// userDirectory is the subset of ports.UserDirectory preprocessing needs.
type userDirectory interface {
	ResolveCopilot(ctx context.Context, project *entities.Project) (string, error)
}

// process resolves the common preprocessing state for one IssueEvent. A
// nil *preprocessed with a nil error means "not a paid ticket" — drop
// silently, per spec.md §4.1.
func (p *preprocessor) process(ctx context.Context, ev *entities.IssueEvent) (*preprocessed, error) {
	project, err := p.projects.GetByRepoURL(ctx, ev.Data.Repository.RepoURL)
	if err != nil {
		return nil, domainerrors.NotFound("no project for repository " + ev.Data.Repository.RepoURL)
	}

	prizes := parsePrizes(ev.Data.Issue.Title)
	if len(prizes) == 0 {
		return nil, nil
	}

	title := stripBracketPrefix(ev.Data.Issue.Title)
	body := renderBody(ev.Data.Issue.Body)

	labelNames := make([]string, 0, len(ev.Data.Issue.Labels))
	for _, l := range ev.Data.Issue.Labels {
		labelNames = append(labelNames, l.Name)
	}
	tcxReady := false
	for _, l := range labelNames {
		if len(l) >= len(p.labels.LabelPrefix) && l[:len(p.labels.LabelPrefix)] == p.labels.LabelPrefix {
			tcxReady = true
			break
		}
	}

	copilot, err := p.users.ResolveCopilot(ctx, project)
	if err != nil {
		return nil, err
	}

	repositoryID := hash.RepositoryID(ev.Data.Repository.ID)

	return &preprocessed{
		Project:      project,
		RepositoryID: repositoryID,
		Prizes:       prizes,
		Title:        title,
		Body:         body,
		TCXReady:     tcxReady,
		Copilot:      copilot,
	}, nil
}
