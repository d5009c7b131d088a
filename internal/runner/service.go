package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/forkops/forksync/internal/githubapi"
	"github.com/forkops/forksync/internal/syncer"
)

const (
	metadataResolverNotConfiguredMessageConstant = "repository metadata resolver not configured"
	synchronizerNotConfiguredMessageConstant     = "synchronizer not configured"
	noticeManagerNotConfiguredMessageConstant    = "notice manager not configured"
	repositoryRequiredMessageConstant            = "repository must be provided"
	repositoryPathRequiredMessageConstant        = "repository path must be provided"
	upstreamDiscoveryFailedMessageConstant       = "repository has no parent to synchronize from"
	cleanupFailureErrorTemplateConstant          = "failed to clear stale failure notices: %v"
	syncFailureErrorTemplateConstant             = "synchronization failed: %v"
	notifyFailureErrorTemplateConstant           = "synchronization failed (%v) and raising the failure notice also failed: %v"
	metadataErrorTemplateConstant                = "failed to resolve repository metadata: %w"
	parentMetadataErrorTemplateConstant          = "failed to resolve parent repository metadata: %w"

	notForkLogMessageConstant        = "Repository is not a fork; nothing to synchronize"
	noticesClearedLogMessageConstant = "Cleared stale failure notices"
	upToDateLogMessageConstant       = "Branch already up to date with upstream"
	synchronizedLogMessageConstant   = "Synchronized branch with upstream"
	dryRunLogMessageConstant         = "Dry run: upstream commits pending"
	syncFailedLogMessageConstant     = "Synchronization failed; raising failure notice"
	noticeRaisedLogMessageConstant   = "Raised failure notice"

	repositoryLogFieldConstant     = "repository"
	targetBranchLogFieldConstant   = "target_branch"
	upstreamBranchLogFieldConstant = "upstream_branch"
	appliedCommitsLogFieldConstant = "applied_commits"
	branchTipLogFieldConstant      = "branch_tip"
	closedIssuesLogFieldConstant   = "closed_issues"
	issueNumberLogFieldConstant    = "issue_number"
)

// Outcome classifies how a synchronization run concluded.
type Outcome string

// Run outcomes.
const (
	OutcomeSkippedNotFork Outcome = "skipped_not_fork"
	OutcomeUpToDate       Outcome = "up_to_date"
	OutcomeSynchronized   Outcome = "synchronized"
	OutcomeDryRun         Outcome = "dry_run"
	OutcomeSyncFailed     Outcome = "sync_failed"
)

// ErrMetadataResolverNotConfigured indicates the service was constructed without a metadata resolver.
var ErrMetadataResolverNotConfigured = errors.New(metadataResolverNotConfiguredMessageConstant)

// ErrSynchronizerNotConfigured indicates the service was constructed without a synchronizer.
var ErrSynchronizerNotConfigured = errors.New(synchronizerNotConfiguredMessageConstant)

// ErrNoticeManagerNotConfigured indicates the service was constructed without a notice manager.
var ErrNoticeManagerNotConfigured = errors.New(noticeManagerNotConfiguredMessageConstant)

// ErrRepositoryRequired indicates the run options carried no repository identifier.
var ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)

// ErrRepositoryPathRequired indicates the run options carried no repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrUpstreamUnavailable indicates a fork whose parent could not be determined.
var ErrUpstreamUnavailable = errors.New(upstreamDiscoveryFailedMessageConstant)

// CleanupFailureError reports a failure clearing stale notices; the run aborts
// before any repository mutation.
type CleanupFailureError struct {
	Cause error
}

// Error describes the cleanup failure.
func (cleanupError CleanupFailureError) Error() string {
	return fmt.Sprintf(cleanupFailureErrorTemplateConstant, cleanupError.Cause)
}

// Unwrap exposes the underlying failure.
func (cleanupError CleanupFailureError) Unwrap() error {
	return cleanupError.Cause
}

// SyncFailureError reports a failed synchronization for which a notice was raised.
type SyncFailureError struct {
	Cause error
}

// Error describes the synchronization failure.
func (syncError SyncFailureError) Error() string {
	return fmt.Sprintf(syncFailureErrorTemplateConstant, syncError.Cause)
}

// Unwrap exposes the underlying failure.
func (syncError SyncFailureError) Unwrap() error {
	return syncError.Cause
}

// NotifyFailureError reports a failed synchronization whose failure notice could not be raised.
type NotifyFailureError struct {
	SyncCause   error
	NotifyCause error
}

// Error describes both failures.
func (notifyError NotifyFailureError) Error() string {
	return fmt.Sprintf(notifyFailureErrorTemplateConstant, notifyError.SyncCause, notifyError.NotifyCause)
}

// Unwrap exposes the notification failure.
func (notifyError NotifyFailureError) Unwrap() error {
	return notifyError.NotifyCause
}

// RepositoryMetadataResolver resolves repository attributes from the hosting service.
type RepositoryMetadataResolver interface {
	ResolveRepositoryMetadata(executionContext context.Context, repositoryIdentifier string) (githubapi.RepositoryMetadata, error)
}

// Synchronizer fast-forwards the local branch onto upstream.
type Synchronizer interface {
	Sync(executionContext context.Context, options syncer.Options) (syncer.Result, error)
}

// NoticeManager maintains the failure notices on the fork repository.
type NoticeManager interface {
	Clean(executionContext context.Context) (int, error)
	Notify(executionContext context.Context, failureDetail string) (int, error)
}

// RunOptions describes a single synchronization run.
type RunOptions struct {
	Repository           string
	RepositoryPath       string
	UpstreamRemoteName   string
	UpstreamBranch       string
	TargetBranch         string
	PushToOrigin         bool
	RequireCleanWorktree bool
	DryRun               bool
}

// RunReport summarizes a completed run.
type RunReport struct {
	Outcome            Outcome
	Repository         string
	TargetBranch       string
	UpstreamBranch     string
	AppliedCommitCount int
	BranchTip          string
	ClosedIssueCount   int
	RaisedIssueNumber  int
	FailureDetail      string
}

// Service executes synchronization runs.
type Service struct {
	logger           *zap.Logger
	metadataResolver RepositoryMetadataResolver
	synchronizer     Synchronizer
	noticeManager    NoticeManager
}

// NewService constructs a Service from its collaborators.
func NewService(logger *zap.Logger, metadataResolver RepositoryMetadataResolver, synchronizer Synchronizer, noticeManager NoticeManager) (*Service, error) {
	if metadataResolver == nil {
		return nil, ErrMetadataResolverNotConfigured
	}
	if synchronizer == nil {
		return nil, ErrSynchronizerNotConfigured
	}
	if noticeManager == nil {
		return nil, ErrNoticeManagerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:           logger,
		metadataResolver: metadataResolver,
		synchronizer:     synchronizer,
		noticeManager:    noticeManager,
	}, nil
}

// Execute performs one synchronization run. Repositories that are not forks are
// skipped without touching issues or the worktree. A failed synchronization
// raises exactly one failure notice and surfaces a SyncFailureError.
func (service *Service) Execute(executionContext context.Context, options RunOptions) (RunReport, error) {
	normalizedOptions, validationError := normalizeRunOptions(options)
	if validationError != nil {
		return RunReport{}, validationError
	}

	runReport := RunReport{Repository: normalizedOptions.Repository}

	repositoryMetadata, metadataError := service.metadataResolver.ResolveRepositoryMetadata(executionContext, normalizedOptions.Repository)
	if metadataError != nil {
		return runReport, fmt.Errorf(metadataErrorTemplateConstant, metadataError)
	}

	if !repositoryMetadata.IsFork {
		service.logger.Info(notForkLogMessageConstant, zap.String(repositoryLogFieldConstant, normalizedOptions.Repository))
		runReport.Outcome = OutcomeSkippedNotFork
		return runReport, nil
	}

	synchronizationOptions, resolutionError := service.resolveSynchronizationOptions(executionContext, normalizedOptions, repositoryMetadata)
	if resolutionError != nil {
		return runReport, resolutionError
	}
	runReport.TargetBranch = synchronizationOptions.TargetBranch
	runReport.UpstreamBranch = synchronizationOptions.UpstreamBranch

	if !normalizedOptions.DryRun {
		closedIssueCount, cleanupError := service.noticeManager.Clean(executionContext)
		if cleanupError != nil {
			return runReport, CleanupFailureError{Cause: cleanupError}
		}
		runReport.ClosedIssueCount = closedIssueCount
		if closedIssueCount > 0 {
			service.logger.Info(noticesClearedLogMessageConstant,
				zap.String(repositoryLogFieldConstant, normalizedOptions.Repository),
				zap.Int(closedIssuesLogFieldConstant, closedIssueCount),
			)
		}
	}

	synchronizationResult, synchronizationError := service.synchronizer.Sync(executionContext, synchronizationOptions)
	if synchronizationError != nil {
		return service.reportSynchronizationFailure(executionContext, runReport, normalizedOptions, synchronizationError)
	}

	runReport.AppliedCommitCount = synchronizationResult.AppliedCommitCount
	runReport.BranchTip = synchronizationResult.BranchTip

	switch {
	case normalizedOptions.DryRun:
		runReport.Outcome = OutcomeDryRun
		service.logger.Info(dryRunLogMessageConstant,
			zap.String(repositoryLogFieldConstant, normalizedOptions.Repository),
			zap.Int(appliedCommitsLogFieldConstant, synchronizationResult.AppliedCommitCount),
		)
	case synchronizationResult.AlreadyUpToDate:
		runReport.Outcome = OutcomeUpToDate
		service.logger.Info(upToDateLogMessageConstant,
			zap.String(repositoryLogFieldConstant, normalizedOptions.Repository),
			zap.String(targetBranchLogFieldConstant, runReport.TargetBranch),
			zap.String(branchTipLogFieldConstant, synchronizationResult.BranchTip),
		)
	default:
		runReport.Outcome = OutcomeSynchronized
		service.logger.Info(synchronizedLogMessageConstant,
			zap.String(repositoryLogFieldConstant, normalizedOptions.Repository),
			zap.String(targetBranchLogFieldConstant, runReport.TargetBranch),
			zap.String(upstreamBranchLogFieldConstant, runReport.UpstreamBranch),
			zap.Int(appliedCommitsLogFieldConstant, synchronizationResult.AppliedCommitCount),
			zap.String(branchTipLogFieldConstant, synchronizationResult.BranchTip),
		)
	}

	return runReport, nil
}

func (service *Service) reportSynchronizationFailure(executionContext context.Context, runReport RunReport, options RunOptions, synchronizationError error) (RunReport, error) {
	runReport.Outcome = OutcomeSyncFailed
	runReport.FailureDetail = synchronizationError.Error()
	service.logger.Warn(syncFailedLogMessageConstant,
		zap.String(repositoryLogFieldConstant, options.Repository),
		zap.Error(synchronizationError),
	)

	if options.DryRun {
		return runReport, SyncFailureError{Cause: synchronizationError}
	}

	raisedIssueNumber, notifyError := service.noticeManager.Notify(executionContext, runReport.FailureDetail)
	if notifyError != nil {
		return runReport, NotifyFailureError{SyncCause: synchronizationError, NotifyCause: notifyError}
	}
	runReport.RaisedIssueNumber = raisedIssueNumber
	service.logger.Info(noticeRaisedLogMessageConstant,
		zap.String(repositoryLogFieldConstant, options.Repository),
		zap.Int(issueNumberLogFieldConstant, raisedIssueNumber),
	)

	return runReport, SyncFailureError{Cause: synchronizationError}
}

func (service *Service) resolveSynchronizationOptions(executionContext context.Context, options RunOptions, repositoryMetadata githubapi.RepositoryMetadata) (syncer.Options, error) {
	targetBranch := options.TargetBranch
	if len(targetBranch) == 0 {
		targetBranch = repositoryMetadata.DefaultBranch
	}

	upstreamURL := repositoryMetadata.ParentCloneURL
	upstreamBranch := options.UpstreamBranch
	if len(upstreamBranch) == 0 {
		if len(repositoryMetadata.ParentNameWithOwner) == 0 {
			return syncer.Options{}, ErrUpstreamUnavailable
		}
		parentMetadata, parentError := service.metadataResolver.ResolveRepositoryMetadata(executionContext, repositoryMetadata.ParentNameWithOwner)
		if parentError != nil {
			return syncer.Options{}, fmt.Errorf(parentMetadataErrorTemplateConstant, parentError)
		}
		upstreamBranch = parentMetadata.DefaultBranch
	}
	if len(upstreamURL) == 0 {
		return syncer.Options{}, ErrUpstreamUnavailable
	}

	return syncer.Options{
		RepositoryPath:                options.RepositoryPath,
		UpstreamRemoteName:            options.UpstreamRemoteName,
		UpstreamRemoteURL:             upstreamURL,
		UpstreamBranch:                upstreamBranch,
		TargetBranch:                  targetBranch,
		ExpectedOriginOwnerRepository: options.Repository,
		PushToOrigin:                  options.PushToOrigin,
		RequireCleanWorktree:          options.RequireCleanWorktree,
		DryRun:                        options.DryRun,
	}, nil
}

func normalizeRunOptions(options RunOptions) (RunOptions, error) {
	normalizedOptions := options
	normalizedOptions.Repository = strings.TrimSpace(options.Repository)
	normalizedOptions.RepositoryPath = strings.TrimSpace(options.RepositoryPath)
	normalizedOptions.UpstreamRemoteName = strings.TrimSpace(options.UpstreamRemoteName)
	normalizedOptions.UpstreamBranch = strings.TrimSpace(options.UpstreamBranch)
	normalizedOptions.TargetBranch = strings.TrimSpace(options.TargetBranch)

	if len(normalizedOptions.Repository) == 0 {
		return RunOptions{}, ErrRepositoryRequired
	}
	if len(normalizedOptions.RepositoryPath) == 0 {
		return RunOptions{}, ErrRepositoryPathRequired
	}
	return normalizedOptions, nil
}
