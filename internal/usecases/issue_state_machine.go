package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	domainrepos "github.com/topcoder-platform/topcoder-x-processor/internal/domain/repositories"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/guard"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/hash"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
)

const (
	commentContestCreated       = "Contest %s has been created"
	commentContestAssigned      = "Contest %s has been assigned to %s"
	commentContestUnassigned    = "Contest %s has been unassigned from %s"
	commentPleaseSignUp         = "Please sign up on the contest platform before being assigned this ticket."
	commentSingleAssignee       = "Only a single assignee is supported for a contest-backed ticket."
	commentWaitForPickup        = "This ticket is not yet open for pickup; please wait for the open-for-pickup label."
	commentUnassignedMissingTag = "Unassigned because the ticket is missing the open-for-pickup label."
	commentNotProcessedPayment  = "This ticket was not processed for payment: it is missing the fix-accepted label, carries the canceled label, or has no prize."
)

// IssueStateMachine is the full lifecycle of a ticket<->challenge binding
// (component C8, spec.md §4.3).
type IssueStateMachine struct {
	issues   domainrepos.IssueRepository
	projects domainrepos.ProjectRepository
	contest  ports.ContestClient
	registry ports.ProviderRegistry
	userDir  ports.UserDirectory
	guard    *guard.KeyedMutex
	labels   config.SourceControlConfig
	pre      *preprocessor
}

// NewIssueStateMachine builds an IssueStateMachine.
func NewIssueStateMachine(
	issues domainrepos.IssueRepository,
	projects domainrepos.ProjectRepository,
	contest ports.ContestClient,
	registry ports.ProviderRegistry,
	userDir ports.UserDirectory,
	keyedMutex *guard.KeyedMutex,
	labels config.SourceControlConfig,
) *IssueStateMachine {
	return &IssueStateMachine{
		issues:   issues,
		projects: projects,
		contest:  contest,
		registry: registry,
		userDir:  userDir,
		guard:    keyedMutex,
		labels:   labels,
		pre:      newPreprocessor(projects, userDir, labels),
	}
}

func repositoryIDFor(ev *entities.IssueEvent) uint64 {
	return hash.RepositoryID(ev.Data.Repository.ID)
}

func eventAssignees(ev *entities.IssueEvent) []entities.User {
	if len(ev.Data.Issue.Assignees) > 0 {
		return ev.Data.Issue.Assignees
	}
	if ev.Data.Assignee != nil {
		return []entities.User{*ev.Data.Assignee}
	}
	return nil
}

func labelNames(labels []entities.Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Name)
	}
	return out
}

func toLabelRefs(names []string) []entities.Label {
	out := make([]entities.Label, 0, len(names))
	for _, n := range names {
		out = append(out, entities.Label{Name: n})
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ensureChallengeExists is the central subroutine of spec.md §4.3.
func (sm *IssueStateMachine) ensureChallengeExists(ctx context.Context, ev *entities.IssueEvent, create bool) (*entities.Issue, error) {
	repositoryID := repositoryIDFor(ev)
	issue, err := sm.issues.GetByKey(ctx, ev.Provider, repositoryID, ev.Data.Issue.Number)
	if err != nil {
		if domainerrors.KindOf(err) == domainerrors.KindNotFound {
			issue = nil
		} else {
			return nil, err
		}
	}

	if issue != nil && issue.Status == entities.IssueStatusChallengeCreationPending {
		return nil, domainerrors.InternalDependency("creation pending, reschedule")
	}
	if issue != nil && issue.Status == entities.IssueStatusChallengeCreationFailed {
		_ = sm.issues.Delete(ctx, issue.ID)
		issue = nil
	}

	if issue == nil && create {
		if err := sm.Create(ctx, ev, false); err != nil {
			return nil, err
		}
		issue, err = sm.issues.GetByKey(ctx, ev.Provider, repositoryID, ev.Data.Issue.Number)
		if err != nil {
			if domainerrors.KindOf(err) == domainerrors.KindNotFound {
				return nil, nil
			}
			return nil, err
		}
	}

	return issue, nil
}

// Create implements spec.md §4.3 `create`.
func (sm *IssueStateMachine) Create(ctx context.Context, ev *entities.IssueEvent, forceAssign bool) error {
	pp, err := sm.pre.process(ctx, ev)
	if err != nil {
		return err
	}
	if pp == nil {
		return nil
	}

	existing, err := sm.issues.GetByKey(ctx, ev.Provider, pp.RepositoryID, ev.Data.Issue.Number)
	if err != nil && domainerrors.KindOf(err) != domainerrors.KindNotFound {
		return err
	}
	if existing != nil {
		return domainerrors.Validation("issue already has a challenge binding")
	}
	if !pp.TCXReady {
		return nil
	}

	key := guard.Key(string(ev.Provider), pp.RepositoryID, ev.Data.Issue.Number)
	if !sm.guard.TryLock(key) {
		return domainerrors.CreationInProgress()
	}
	defer sm.guard.Unlock(key)

	issue := &entities.Issue{
		Provider:     ev.Provider,
		RepositoryID: pp.RepositoryID,
		Number:       ev.Data.Issue.Number,
		Title:        pp.Title,
		Body:         pp.Body,
		Prizes:       pp.Prizes,
		Labels:       labelNames(ev.Data.Issue.Labels),
		Status:       entities.IssueStatusChallengeCreationPending,
	}
	if err := sm.issues.Create(ctx, issue); err != nil {
		return err
	}

	challengeID, err := sm.contest.CreateChallenge(ctx, ports.CreateChallengeInput{
		Name:                 pp.Title,
		ProjectID:            pp.Project.TCDirectID,
		Description:          pp.Body,
		Prizes:               pp.Prizes,
		Task:                 true,
		SubmissionGuidelines: ev.Data.Repository.RepoURL + "/issues/" + strconv.Itoa(ev.Data.Issue.Number),
	})
	if err != nil {
		_ = sm.issues.Delete(ctx, issue.ID)
		return domainerrors.ExternalAPI("create challenge", err)
	}

	issue.ChallengeID = &challengeID
	issue.Status = entities.IssueStatusChallengeCreationSuccess
	if err := sm.issues.Update(ctx, issue); err != nil {
		_ = sm.issues.Delete(ctx, issue.ID)
		return err
	}

	if sc, scErr := sm.registry.For(ev.Provider); scErr == nil {
		_ = sc.Comment(ctx, pp.RepositoryID, ev.Data.Issue.Number, fmt.Sprintf(commentContestCreated, challengeID))
	}

	if (ev.Provider == entities.ProviderGitLab || forceAssign) && len(eventAssignees(ev)) > 0 {
		return sm.Assign(ctx, ev, true)
	}
	return nil
}

// Update implements spec.md §4.3 `update`.
func (sm *IssueStateMachine) Update(ctx context.Context, ev *entities.IssueEvent) error {
	pp, err := sm.pre.process(ctx, ev)
	if err != nil {
		return err
	}
	if pp == nil {
		return nil
	}

	issue, err := sm.ensureChallengeExists(ctx, ev, true)
	if err != nil {
		return err
	}
	if issue == nil {
		if pp.TCXReady {
			return domainerrors.InternalDependency("challenge not yet created, reschedule")
		}
		return nil
	}

	if issue.Title == pp.Title && issue.Body == pp.Body && entities.PrizesEqual(issue.Prizes, pp.Prizes) {
		return nil
	}

	name, description := pp.Title, pp.Body
	if err := sm.contest.UpdateChallenge(ctx, *issue.ChallengeID, ports.UpdateChallengeInput{
		Name:        &name,
		Description: &description,
		Prizes:      pp.Prizes,
	}); err != nil {
		return domainerrors.ExternalAPI("update challenge", err)
	}

	issue.Title = pp.Title
	issue.Body = pp.Body
	issue.Prizes = pp.Prizes
	issue.Labels = labelNames(ev.Data.Issue.Labels)
	return sm.issues.Update(ctx, issue)
}

// Assign implements spec.md §4.3 `assign`.
func (sm *IssueStateMachine) Assign(ctx context.Context, ev *entities.IssueEvent, force bool) error {
	assignees := eventAssignees(ev)
	if len(assignees) == 0 {
		return nil
	}
	target := assignees[0]
	repositoryID := repositoryIDFor(ev)

	sc, err := sm.registry.For(ev.Provider)
	if err != nil {
		return err
	}

	handle, err := sm.userDir.ResolveHandle(ctx, ev.Provider, target.ID)
	if err != nil {
		if domainerrors.KindOf(err) == domainerrors.KindNotFound {
			_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentPleaseSignUp)
			return sc.Unassign(ctx, repositoryID, ev.Data.Issue.Number, target.ID)
		}
		return err
	}

	issue, err := sm.ensureChallengeExists(ctx, ev, true)
	if err != nil {
		return err
	}
	if issue == nil {
		return nil
	}

	if len(assignees) >= 2 {
		return sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentSingleAssignee)
	}

	if issue.Assignee != nil {
		// Either already bound to this exact handle (no-op) or bound to a
		// different one — an unassign event drives the rest in that case.
		return nil
	}

	labels := labelNames(ev.Data.Issue.Labels)
	openForPickup := contains(labels, sm.labels.LabelOpenForPickup)
	if !openForPickup && !force {
		notReady := contains(labels, sm.labels.LabelNotReady)
		if !notReady {
			_ = sc.AddLabel(ctx, repositoryID, ev.Data.Issue.Number, sm.labels.LabelNotReady)
			_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentWaitForPickup)
			return sc.Unassign(ctx, repositoryID, ev.Data.Issue.Number, target.ID)
		}
		_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentUnassignedMissingTag)
		return sc.Unassign(ctx, repositoryID, ev.Data.Issue.Number, target.ID)
	}

	if err := sm.contest.AddResource(ctx, *issue.ChallengeID, handle, ports.RoleSubmitter); err != nil {
		return domainerrors.ExternalAPI("add submitter resource", err)
	}

	if err := sm.applyLabelSwap(ctx, sc, repositoryID, ev.Data.Issue.Number, sm.labels.LabelOpenForPickup, sm.labels.LabelAssigned); err != nil {
		return err
	}

	now := time.Now()
	issue.Assignee = &handle
	issue.AssignedAt = &now
	issue.Labels = entities.ReplaceLabel(issue.Labels, sm.labels.LabelOpenForPickup, sm.labels.LabelAssigned)
	if err := sm.issues.Update(ctx, issue); err != nil {
		return err
	}

	return sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, fmt.Sprintf(commentContestAssigned, *issue.ChallengeID, handle))
}

// Unassign implements spec.md §4.3 `unassign`.
func (sm *IssueStateMachine) Unassign(ctx context.Context, ev *entities.IssueEvent) error {
	issue, err := sm.ensureChallengeExists(ctx, ev, false)
	if err != nil {
		return err
	}
	if issue == nil {
		return nil
	}

	sc, err := sm.registry.For(ev.Provider)
	if err != nil {
		return err
	}
	repositoryID := issue.RepositoryID

	if issue.Assignee != nil {
		handle := *issue.Assignee
		if err := sm.contest.RemoveResource(ctx, *issue.ChallengeID, handle, ports.RoleSubmitter); err != nil {
			return domainerrors.ExternalAPI("remove submitter resource", err)
		}
		if err := sm.applyLabelSwap(ctx, sc, repositoryID, ev.Data.Issue.Number, sm.labels.LabelAssigned, sm.labels.LabelOpenForPickup); err != nil {
			return err
		}
		issue.Labels = entities.ReplaceLabel(issue.Labels, sm.labels.LabelAssigned, sm.labels.LabelOpenForPickup)
		_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, fmt.Sprintf(commentContestUnassigned, *issue.ChallengeID, handle))
	}

	remaining := eventAssignees(ev)
	switch {
	case len(remaining) == 1:
		reassignEv := *ev
		remainingUser := remaining[0]
		reassignEv.Data.Assignee = &remainingUser
		reassignEv.Data.Issue.Assignees = nil
		if err := sm.Assign(ctx, &reassignEv, false); err != nil {
			return err
		}
		return nil
	case len(remaining) >= 2:
		_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentSingleAssignee)
	}

	issue.Assignee = nil
	issue.AssignedAt = nil
	return sm.issues.Update(ctx, issue)
}

// Close implements spec.md §4.3 `close`, the payment pipeline.
func (sm *IssueStateMachine) Close(ctx context.Context, ev *entities.IssueEvent) error {
	repositoryID := repositoryIDFor(ev)

	issue, err := sm.ensureChallengeExists(ctx, ev, false)
	if err != nil {
		return err
	}
	if issue == nil {
		if ev.Data.Issue.Title != "" && len(parsePrizes(ev.Data.Issue.Title)) > 0 {
			return domainerrors.InternalDependency("no challenge yet, reschedule")
		}
		return nil
	}

	if issue.Status == entities.IssueStatusChallengePaymentSuccessful || issue.Status == entities.IssueStatusChallengePaymentPending {
		return nil
	}

	sc, err := sm.registry.For(ev.Provider)
	if err != nil {
		return err
	}

	labels := labelNames(ev.Data.Issue.Labels)
	if !contains(labels, sm.labels.LabelFixAccepted) || contains(labels, sm.labels.LabelCanceled) {
		_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentNotProcessedPayment)
		return nil
	}
	if len(issue.Prizes) == 0 || issue.Prizes[0] == 0 {
		_ = sc.Comment(ctx, repositoryID, ev.Data.Issue.Number, commentNotProcessedPayment)
		return nil
	}

	assignees := eventAssignees(ev)
	if len(assignees) == 0 {
		return nil
	}
	if contains(labels, sm.labels.LabelPaid) {
		return nil
	}

	challenge, err := sm.contest.GetChallenge(ctx, *issue.ChallengeID)
	if err != nil {
		return domainerrors.ExternalAPI("get challenge", err)
	}
	if challenge.CurrentStatus == ports.ChallengeStatusCompleted {
		return nil
	}

	issue.Status = entities.IssueStatusChallengePaymentPending
	if err := sm.issues.Update(ctx, issue); err != nil {
		return err
	}

	project, err := sm.projects.GetByRepoURL(ctx, ev.Data.Repository.RepoURL)
	if err != nil {
		return domainerrors.NotFound("no project for repository " + ev.Data.Repository.RepoURL)
	}

	winnerID := assignees[0].ID
	winnerHandle, err := sm.userDir.ResolveHandle(ctx, ev.Provider, winnerID)
	if err != nil {
		_ = sc.Unassign(ctx, repositoryID, ev.Data.Issue.Number, winnerID)
		issue.Status = entities.IssueStatusChallengePaymentFailed
		_ = sm.issues.Update(ctx, issue)
		return domainerrors.ExternalAPI("resolve winner handle", err)
	}

	billingAccountID, err := sm.contest.GetBillingAccountID(ctx, project.TCDirectID)
	if err != nil {
		issue.Status = entities.IssueStatusChallengePaymentFailed
		_ = sm.issues.Update(ctx, issue)
		return domainerrors.ExternalAPI("get billing account", err)
	}
	if err := sm.contest.UpdateChallenge(ctx, *issue.ChallengeID, ports.UpdateChallengeInput{
		BillingAccountID: &billingAccountID,
		Prizes:           issue.Prizes,
	}); err != nil {
		issue.Status = entities.IssueStatusChallengePaymentFailed
		_ = sm.issues.Update(ctx, issue)
		return domainerrors.ExternalAPI("update challenge billing", err)
	}

	copilot, err := sm.userDir.ResolveCopilot(ctx, project)
	if err == nil && copilot != "" {
		copilotIsWinner := copilot == winnerHandle
		if !(copilotIsWinner && project.CreateCopilotPayments) {
			if err := sm.contest.AddResource(ctx, *issue.ChallengeID, copilot, ports.RoleCopilot); err != nil {
				logger.Warn(ctx, "failed to add copilot resource", zap.Error(err))
			}
		}
	}

	if err := sm.contest.AddResource(ctx, *issue.ChallengeID, winnerHandle, ports.RoleSubmitter); err != nil {
		issue.Status = entities.IssueStatusChallengePaymentFailed
		_ = sm.issues.Update(ctx, issue)
		return domainerrors.ExternalAPI("add submitter resource", err)
	}

	if challenge.CurrentStatus == ports.ChallengeStatusDraft {
		if err := sm.contest.ActivateChallenge(ctx, *issue.ChallengeID); err != nil {
			issue.Status = entities.IssueStatusChallengePaymentFailed
			_ = sm.issues.Update(ctx, issue)
			return domainerrors.ExternalAPI("activate challenge", err)
		}
	}

	if err := sm.contest.CloseChallenge(ctx, *issue.ChallengeID, ports.Winner{UserID: winnerID, Handle: winnerHandle, Placement: 1}); err != nil {
		if !ev.PaymentSuccessful {
			issue.Status = entities.IssueStatusChallengePaymentFailed
			_ = sm.issues.Update(ctx, issue)
		}
		return domainerrors.ExternalAPI("close challenge", err)
	}

	ev.PaymentSuccessful = true
	issue.Status = entities.IssueStatusChallengePaymentSuccessful
	issue.Labels = entities.ReplaceLabel(issue.Labels, sm.labels.LabelAssigned, sm.labels.LabelPaid)
	if err := sm.issues.Update(ctx, issue); err != nil {
		return err
	}
	if err := sm.applyLabelSwap(ctx, sc, repositoryID, ev.Data.Issue.Number, sm.labels.LabelAssigned, sm.labels.LabelPaid); err != nil {
		logger.Warn(ctx, "failed to swap labels after payment success", zap.Error(err))
	}

	return sc.MarkPaid(ctx, repositoryID, ev.Data.Issue.Number)
}

// LabelUpdated implements spec.md §4.3 `labelUpdated`.
func (sm *IssueStateMachine) LabelUpdated(ctx context.Context, ev *entities.IssueEvent) error {
	issue, err := sm.ensureChallengeExists(ctx, ev, true)
	if err != nil {
		return err
	}
	if issue == nil {
		return nil
	}
	issue.Labels = labelNames(ev.Data.Issue.Labels)
	return sm.issues.Update(ctx, issue)
}

// Recreate implements spec.md §4.3 `recreate`.
func (sm *IssueStateMachine) Recreate(ctx context.Context, ev *entities.IssueEvent) error {
	repositoryID := repositoryIDFor(ev)

	existing, err := sm.issues.GetByKey(ctx, ev.Provider, repositoryID, ev.Data.Issue.Number)
	if err != nil && domainerrors.KindOf(err) != domainerrors.KindNotFound {
		return err
	}

	sc, err := sm.registry.For(ev.Provider)
	if err != nil {
		return err
	}

	if existing != nil {
		_ = sm.issues.Delete(ctx, existing.ID)
	}

	kept := make([]string, 0, len(ev.Data.Issue.Labels))
	for _, l := range ev.Data.Issue.Labels {
		if len(l.Name) >= len(sm.labels.LabelPrefix) && l.Name[:len(sm.labels.LabelPrefix)] == sm.labels.LabelPrefix {
			_ = sc.RemoveLabel(ctx, repositoryID, ev.Data.Issue.Number, l.Name)
			continue
		}
		kept = append(kept, l.Name)
	}

	assignees := eventAssignees(ev)
	for _, a := range assignees {
		_ = sc.Unassign(ctx, repositoryID, ev.Data.Issue.Number, a.ID)
	}

	sm.guard.Unlock(guard.Key(string(ev.Provider), repositoryID, ev.Data.Issue.Number))

	if err := sc.AddLabel(ctx, repositoryID, ev.Data.Issue.Number, sm.labels.LabelOpenForPickup); err != nil {
		return domainerrors.ExternalAPI("add open-for-pickup label", err)
	}
	kept = append(kept, sm.labels.LabelOpenForPickup)

	recreateEv := *ev
	recreateEv.Event = entities.EventIssueCreated
	recreateEv.Data.Issue.Labels = toLabelRefs(kept)

	if err := sm.Create(ctx, &recreateEv, false); err != nil {
		return err
	}
	if len(assignees) > 0 {
		return sm.Assign(ctx, &recreateEv, true)
	}
	return nil
}

var bidPattern = regexp.MustCompile(`^/bid\s+\$(\d+)\s*$`)
var acceptBidPattern = regexp.MustCompile(`^/accept_bid\s+@(\S+)\s+\$(\d+)\s*$`)

// Comment implements spec.md §4.3 `comment`.
func (sm *IssueStateMachine) Comment(ctx context.Context, ev *entities.IssueEvent) error {
	if ev.Data.Comment == nil {
		return nil
	}
	body := strings.TrimSpace(ev.Data.Comment.Body)

	switch {
	case bidPattern.MatchString(body):
		logger.Info(ctx, "bid recorded", zap.String("body", body))
		return nil
	case acceptBidPattern.MatchString(body):
		m := acceptBidPattern.FindStringSubmatch(body)
		amount := m[2]

		issue, err := sm.ensureChallengeExists(ctx, ev, false)
		if err != nil {
			return err
		}
		if issue == nil {
			return nil
		}

		issue.Title = "[$" + amount + "] " + issue.Title
		if err := sm.issues.Update(ctx, issue); err != nil {
			return err
		}

		sc, err := sm.registry.For(ev.Provider)
		if err != nil {
			return err
		}
		// The directory only maps source-control id -> handle, not handle ->
		// id, so the accepted bidder's handle from the comment cannot be
		// turned back into an assignable source-control user id here; the
		// title prefix is applied, the assignment itself is left to the
		// accompanying issue.assigned event the bot is expected to emit.
		return sc.UpdateTitle(ctx, issue.RepositoryID, ev.Data.Issue.Number, issue.Title)
	case strings.HasPrefix(body, "/bid") || strings.HasPrefix(body, "/accept_bid"):
		return domainerrors.Validation("malformed comment command: " + body)
	default:
		return nil
	}
}

// applyLabelSwap removes `from` and adds `to` on the source-control ticket.
func (sm *IssueStateMachine) applyLabelSwap(ctx context.Context, sc ports.SourceControlClient, repositoryID uint64, number int, from, to string) error {
	if err := sc.RemoveLabel(ctx, repositoryID, number, from); err != nil {
		return domainerrors.ExternalAPI("remove label "+from, err)
	}
	if err := sc.AddLabel(ctx, repositoryID, number, to); err != nil {
		return domainerrors.ExternalAPI("add label "+to, err)
	}
	return nil
}
