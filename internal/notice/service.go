package notice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forkops/forksync/internal/githubapi"
)

const (
	issueServiceNotConfiguredMessageConstant    = "issue service not configured"
	repositoryIdentifierRequiredMessageConstant = "repository identifier must be provided"
	issueListErrorTemplateConstant              = "failed to enumerate tracking issues: %w"
	issueCloseErrorTemplateConstant             = "failed to close tracking issue #%d: %w"
	issueCreateErrorTemplateConstant            = "failed to raise tracking issue: %w"
	defaultTrackingLabelConstant                = "sync fail"
	defaultIssueTitleConstant                   = "同步失败 | Sync Fail"
	issueBodyHeaderConstant                     = "同步上游仓库失败，请手动处理。\n\nAutomatic synchronization with the upstream repository failed and needs manual attention.\n"
	issueBodyDetailTemplateConstant             = "\n```\n%s\n```\n"
)

// ErrIssueServiceNotConfigured indicates the manager was constructed without an issue service.
var ErrIssueServiceNotConfigured = errors.New(issueServiceNotConfiguredMessageConstant)

// ErrRepositoryIdentifierRequired indicates the manager was constructed without a repository identifier.
var ErrRepositoryIdentifierRequired = errors.New(repositoryIdentifierRequiredMessageConstant)

// IssueService exposes the issue operations the manager depends on.
type IssueService interface {
	ListOpenIssuesByLabel(executionContext context.Context, repositoryIdentifier string, labelName string) ([]githubapi.IssueSummary, error)
	CloseIssue(executionContext context.Context, repositoryIdentifier string, issueNumber int) error
	CreateIssue(executionContext context.Context, repositoryIdentifier string, issueTitle string, issueBody string, labelNames []string) (int, error)
}

// Settings customizes the tracking issue label and title. Zero values select the defaults.
type Settings struct {
	TrackingLabel string
	IssueTitle    string
}

// Manager closes stale tracking issues and raises new ones when runs fail.
type Manager struct {
	issueService         IssueService
	repositoryIdentifier string
	trackingLabel        string
	issueTitle           string
}

// NewManager constructs a Manager for the provided repository.
func NewManager(issueService IssueService, repositoryIdentifier string, settings Settings) (*Manager, error) {
	if issueService == nil {
		return nil, ErrIssueServiceNotConfigured
	}
	trimmedIdentifier := strings.TrimSpace(repositoryIdentifier)
	if len(trimmedIdentifier) == 0 {
		return nil, ErrRepositoryIdentifierRequired
	}

	trackingLabel := strings.TrimSpace(settings.TrackingLabel)
	if len(trackingLabel) == 0 {
		trackingLabel = defaultTrackingLabelConstant
	}
	issueTitle := strings.TrimSpace(settings.IssueTitle)
	if len(issueTitle) == 0 {
		issueTitle = defaultIssueTitleConstant
	}

	return &Manager{
		issueService:         issueService,
		repositoryIdentifier: trimmedIdentifier,
		trackingLabel:        trackingLabel,
		issueTitle:           issueTitle,
	}, nil
}

// Clean closes every open tracking issue and returns how many were closed.
// Repositories without open tracking issues are left untouched.
func (manager *Manager) Clean(executionContext context.Context) (int, error) {
	openIssues, listError := manager.issueService.ListOpenIssuesByLabel(executionContext, manager.repositoryIdentifier, manager.trackingLabel)
	if listError != nil {
		return 0, fmt.Errorf(issueListErrorTemplateConstant, listError)
	}

	closedCount := 0
	for _, openIssue := range openIssues {
		if closeError := manager.issueService.CloseIssue(executionContext, manager.repositoryIdentifier, openIssue.Number); closeError != nil {
			return closedCount, fmt.Errorf(issueCloseErrorTemplateConstant, openIssue.Number, closeError)
		}
		closedCount++
	}
	return closedCount, nil
}

// Notify raises a tracking issue describing the failed run and returns its
// number. Each failed run raises its own issue; callers rely on Clean to
// collapse the backlog after the next success.
func (manager *Manager) Notify(executionContext context.Context, failureDetail string) (int, error) {
	issueBody := issueBodyHeaderConstant
	trimmedDetail := strings.TrimSpace(failureDetail)
	if len(trimmedDetail) > 0 {
		issueBody += fmt.Sprintf(issueBodyDetailTemplateConstant, trimmedDetail)
	}

	issueNumber, creationError := manager.issueService.CreateIssue(
		executionContext,
		manager.repositoryIdentifier,
		manager.issueTitle,
		issueBody,
		[]string{manager.trackingLabel},
	)
	if creationError != nil {
		return 0, fmt.Errorf(issueCreateErrorTemplateConstant, creationError)
	}
	return issueNumber, nil
}
