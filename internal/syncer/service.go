package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forkops/forksync/internal/execshell"
	"github.com/forkops/forksync/internal/gitrepo"
)

const (
	executorNotConfiguredMessageConstant          = "git executor not configured"
	repositoryManagerNotConfiguredMessageConstant = "repository manager not configured"
	repositoryPathRequiredMessageConstant         = "repository path must be provided"
	upstreamRemoteURLRequiredMessageConstant      = "upstream remote url must be provided"
	upstreamBranchRequiredMessageConstant         = "upstream branch must be provided"
	targetBranchRequiredMessageConstant           = "target branch must be provided"
	worktreeDirtyErrorTemplateConstant            = "worktree at %s has uncommitted changes"
	divergenceErrorTemplateConstant               = "branch %s has %d commits absent from %s/%s; fast-forward is not possible"
	remoteEnsureErrorTemplateConstant             = "failed to configure remote %q: %w"
	fetchErrorTemplateConstant                    = "failed to fetch %s from %q: %w"
	checkoutErrorTemplateConstant                 = "failed to check out branch %s: %w"
	currentBranchErrorTemplateConstant            = "failed to determine current branch: %w"
	revisionListErrorTemplateConstant             = "failed to list commits in range %s: %w"
	mergeErrorTemplateConstant                    = "failed to fast-forward %s onto %s: %w"
	pushErrorTemplateConstant                     = "failed to push %s to %s: %w"
	worktreeInspectionErrorTemplateConstant       = "failed to inspect worktree: %w"
	originLookupErrorTemplateConstant             = "failed to read origin remote: %w"
	originParseErrorTemplateConstant              = "failed to parse origin remote: %w"
	originMismatchErrorTemplateConstant           = "origin remote %q does not belong to %s"
	branchTipErrorTemplateConstant                = "failed to resolve branch tip: %w"
	defaultUpstreamRemoteNameConstant             = "upstream"
	originRemoteNameConstant                      = "origin"
	gitTerminalPromptVariableNameConstant         = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant        = "0"
	gitFetchSubcommandConstant                    = "fetch"
	gitCheckoutSubcommandConstant                 = "checkout"
	gitRevListSubcommandConstant                  = "rev-list"
	gitRevListCountFlagConstant                   = "--count"
	gitMergeSubcommandConstant                    = "merge"
	gitMergeFastForwardOnlyFlagConstant           = "--ff-only"
	gitPushSubcommandConstant                     = "push"
	gitRangeSeparatorConstant                     = ".."
	gitRemoteReferenceSeparatorConstant           = "/"
	gitHeadReferenceConstant                      = "HEAD"
)

// ErrExecutorNotConfigured indicates the service was constructed without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the service was constructed without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates the synchronization options carried no repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrUpstreamRemoteURLRequired indicates the synchronization options carried no upstream url.
var ErrUpstreamRemoteURLRequired = errors.New(upstreamRemoteURLRequiredMessageConstant)

// ErrUpstreamBranchRequired indicates the synchronization options carried no upstream branch.
var ErrUpstreamBranchRequired = errors.New(upstreamBranchRequiredMessageConstant)

// ErrTargetBranchRequired indicates the synchronization options carried no target branch.
var ErrTargetBranchRequired = errors.New(targetBranchRequiredMessageConstant)

// WorktreeDirtyError reports uncommitted changes that block a synchronization run.
type WorktreeDirtyError struct {
	RepositoryPath string
}

// Error describes the dirty worktree.
func (dirtyError WorktreeDirtyError) Error() string {
	return fmt.Sprintf(worktreeDirtyErrorTemplateConstant, dirtyError.RepositoryPath)
}

// OriginMismatchError reports a local clone whose origin remote belongs to a
// different repository than the one being synchronized.
type OriginMismatchError struct {
	ExpectedOwnerRepository string
	ActualRemoteURL         string
}

// Error describes the mismatch.
func (mismatchError OriginMismatchError) Error() string {
	return fmt.Sprintf(originMismatchErrorTemplateConstant, mismatchError.ActualRemoteURL, mismatchError.ExpectedOwnerRepository)
}

// DivergenceError reports local commits that prevent a fast-forward merge.
type DivergenceError struct {
	TargetBranch       string
	UpstreamRemoteName string
	UpstreamBranch     string
	LocalOnlyCommits   int
	UpstreamNewCommits int
}

// Error describes the divergence.
func (divergenceError DivergenceError) Error() string {
	return fmt.Sprintf(
		divergenceErrorTemplateConstant,
		divergenceError.TargetBranch,
		divergenceError.LocalOnlyCommits,
		divergenceError.UpstreamRemoteName,
		divergenceError.UpstreamBranch,
	)
}

// GitExecutor runs git commands inside repository worktrees.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager exposes the repository inspection operations the syncer depends on.
type RepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	ResolveCommit(executionContext context.Context, repositoryPath string, revision string) (string, error)
}

// Options describes a single synchronization request. When
// ExpectedOriginOwnerRepository is set, the origin remote must resolve to that
// owner/name pair before anything is touched.
type Options struct {
	RepositoryPath                string
	UpstreamRemoteName            string
	UpstreamRemoteURL             string
	UpstreamBranch                string
	TargetBranch                  string
	ExpectedOriginOwnerRepository string
	PushToOrigin                  bool
	RequireCleanWorktree          bool
	DryRun                        bool
}

// Result summarizes a completed synchronization.
type Result struct {
	AlreadyUpToDate    bool
	AppliedCommitCount int
	AppliedCommits     []string
	BranchTip          string
	Pushed             bool
}

// Service performs fast-forward synchronizations.
type Service struct {
	executor          GitExecutor
	repositoryManager RepositoryManager
}

// NewService constructs a Service from its collaborators.
func NewService(executor GitExecutor, repositoryManager RepositoryManager) (*Service, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if repositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{executor: executor, repositoryManager: repositoryManager}, nil
}

// Sync brings the target branch up to date with the upstream branch using a
// single fast-forward attempt. Diverged branches are reported without modifying
// the repository.
func (service *Service) Sync(executionContext context.Context, options Options) (Result, error) {
	normalizedOptions, validationError := normalizeOptions(options)
	if validationError != nil {
		return Result{}, validationError
	}

	if normalizedOptions.RequireCleanWorktree {
		cleanWorktree, inspectionError := service.repositoryManager.CheckCleanWorktree(executionContext, normalizedOptions.RepositoryPath)
		if inspectionError != nil {
			return Result{}, fmt.Errorf(worktreeInspectionErrorTemplateConstant, inspectionError)
		}
		if !cleanWorktree {
			return Result{}, WorktreeDirtyError{RepositoryPath: normalizedOptions.RepositoryPath}
		}
	}

	if verificationError := service.verifyOriginRemote(executionContext, normalizedOptions); verificationError != nil {
		return Result{}, verificationError
	}

	if ensureError := service.ensureUpstreamRemote(executionContext, normalizedOptions); ensureError != nil {
		return Result{}, ensureError
	}

	fetchDetails := execshell.CommandDetails{
		Arguments:            []string{gitFetchSubcommandConstant, normalizedOptions.UpstreamRemoteName, normalizedOptions.UpstreamBranch},
		WorkingDirectory:     normalizedOptions.RepositoryPath,
		EnvironmentVariables: disabledTerminalPromptEnvironment(),
	}
	if _, fetchError := service.executor.ExecuteGit(executionContext, fetchDetails); fetchError != nil {
		return Result{}, fmt.Errorf(fetchErrorTemplateConstant, normalizedOptions.UpstreamBranch, normalizedOptions.UpstreamRemoteName, fetchError)
	}

	currentBranch, currentBranchError := service.repositoryManager.GetCurrentBranch(executionContext, normalizedOptions.RepositoryPath)
	if currentBranchError != nil {
		return Result{}, fmt.Errorf(currentBranchErrorTemplateConstant, currentBranchError)
	}
	if currentBranch != normalizedOptions.TargetBranch {
		checkoutDetails := execshell.CommandDetails{
			Arguments:        []string{gitCheckoutSubcommandConstant, normalizedOptions.TargetBranch},
			WorkingDirectory: normalizedOptions.RepositoryPath,
		}
		if _, checkoutError := service.executor.ExecuteGit(executionContext, checkoutDetails); checkoutError != nil {
			return Result{}, fmt.Errorf(checkoutErrorTemplateConstant, normalizedOptions.TargetBranch, checkoutError)
		}
	}

	upstreamReference := normalizedOptions.UpstreamRemoteName + gitRemoteReferenceSeparatorConstant + normalizedOptions.UpstreamBranch

	pendingCommits, pendingError := service.listCommitRange(executionContext, normalizedOptions.RepositoryPath, gitHeadReferenceConstant+gitRangeSeparatorConstant+upstreamReference)
	if pendingError != nil {
		return Result{}, pendingError
	}
	localOnlyCommitCount, localOnlyError := service.countCommitRange(executionContext, normalizedOptions.RepositoryPath, upstreamReference+gitRangeSeparatorConstant+gitHeadReferenceConstant)
	if localOnlyError != nil {
		return Result{}, localOnlyError
	}

	if localOnlyCommitCount > 0 {
		return Result{}, DivergenceError{
			TargetBranch:       normalizedOptions.TargetBranch,
			UpstreamRemoteName: normalizedOptions.UpstreamRemoteName,
			UpstreamBranch:     normalizedOptions.UpstreamBranch,
			LocalOnlyCommits:   localOnlyCommitCount,
			UpstreamNewCommits: len(pendingCommits),
		}
	}

	if len(pendingCommits) == 0 {
		branchTip, tipError := service.repositoryManager.ResolveCommit(executionContext, normalizedOptions.RepositoryPath, gitHeadReferenceConstant)
		if tipError != nil {
			return Result{}, fmt.Errorf(branchTipErrorTemplateConstant, tipError)
		}
		return Result{AlreadyUpToDate: true, BranchTip: branchTip}, nil
	}

	if normalizedOptions.DryRun {
		return Result{AppliedCommitCount: len(pendingCommits), AppliedCommits: pendingCommits}, nil
	}

	mergeDetails := execshell.CommandDetails{
		Arguments:        []string{gitMergeSubcommandConstant, gitMergeFastForwardOnlyFlagConstant, upstreamReference},
		WorkingDirectory: normalizedOptions.RepositoryPath,
	}
	if _, mergeError := service.executor.ExecuteGit(executionContext, mergeDetails); mergeError != nil {
		return Result{}, fmt.Errorf(mergeErrorTemplateConstant, normalizedOptions.TargetBranch, upstreamReference, mergeError)
	}

	branchTip, tipError := service.repositoryManager.ResolveCommit(executionContext, normalizedOptions.RepositoryPath, gitHeadReferenceConstant)
	if tipError != nil {
		return Result{}, fmt.Errorf(branchTipErrorTemplateConstant, tipError)
	}

	synchronizationResult := Result{
		AppliedCommitCount: len(pendingCommits),
		AppliedCommits:     pendingCommits,
		BranchTip:          branchTip,
	}

	if normalizedOptions.PushToOrigin {
		pushDetails := execshell.CommandDetails{
			Arguments:            []string{gitPushSubcommandConstant, originRemoteNameConstant, normalizedOptions.TargetBranch},
			WorkingDirectory:     normalizedOptions.RepositoryPath,
			EnvironmentVariables: disabledTerminalPromptEnvironment(),
		}
		if _, pushError := service.executor.ExecuteGit(executionContext, pushDetails); pushError != nil {
			return Result{}, fmt.Errorf(pushErrorTemplateConstant, normalizedOptions.TargetBranch, originRemoteNameConstant, pushError)
		}
		synchronizationResult.Pushed = true
	}

	return synchronizationResult, nil
}

func (service *Service) verifyOriginRemote(executionContext context.Context, options Options) error {
	if len(options.ExpectedOriginOwnerRepository) == 0 {
		return nil
	}

	originURL, lookupError := service.repositoryManager.GetRemoteURL(executionContext, options.RepositoryPath, originRemoteNameConstant)
	if lookupError != nil {
		return fmt.Errorf(originLookupErrorTemplateConstant, lookupError)
	}

	parsedOrigin, parseError := gitrepo.ParseRemoteURL(originURL)
	if parseError != nil {
		return fmt.Errorf(originParseErrorTemplateConstant, parseError)
	}

	if !strings.EqualFold(parsedOrigin.OwnerRepository(), options.ExpectedOriginOwnerRepository) {
		return OriginMismatchError{
			ExpectedOwnerRepository: options.ExpectedOriginOwnerRepository,
			ActualRemoteURL:         originURL,
		}
	}
	return nil
}

func (service *Service) ensureUpstreamRemote(executionContext context.Context, options Options) error {
	configuredURL, lookupError := service.repositoryManager.GetRemoteURL(executionContext, options.RepositoryPath, options.UpstreamRemoteName)
	if lookupError != nil {
		if addError := service.repositoryManager.AddRemote(executionContext, options.RepositoryPath, options.UpstreamRemoteName, options.UpstreamRemoteURL); addError != nil {
			return fmt.Errorf(remoteEnsureErrorTemplateConstant, options.UpstreamRemoteName, addError)
		}
		return nil
	}
	if configuredURL != options.UpstreamRemoteURL {
		if updateError := service.repositoryManager.SetRemoteURL(executionContext, options.RepositoryPath, options.UpstreamRemoteName, options.UpstreamRemoteURL); updateError != nil {
			return fmt.Errorf(remoteEnsureErrorTemplateConstant, options.UpstreamRemoteName, updateError)
		}
	}
	return nil
}

func (service *Service) listCommitRange(executionContext context.Context, repositoryPath string, commitRange string) ([]string, error) {
	executionResult, executionError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevListSubcommandConstant, commitRange},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, fmt.Errorf(revisionListErrorTemplateConstant, commitRange, executionError)
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

func (service *Service) countCommitRange(executionContext context.Context, repositoryPath string, commitRange string) (int, error) {
	executionResult, executionError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevListSubcommandConstant, gitRevListCountFlagConstant, commitRange},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return 0, fmt.Errorf(revisionListErrorTemplateConstant, commitRange, executionError)
	}

	commitCount := 0
	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) > 0 {
		if _, scanError := fmt.Sscanf(trimmedOutput, "%d", &commitCount); scanError != nil {
			return 0, fmt.Errorf(revisionListErrorTemplateConstant, commitRange, scanError)
		}
	}
	return commitCount, nil
}

func normalizeOptions(options Options) (Options, error) {
	normalizedOptions := options
	normalizedOptions.RepositoryPath = strings.TrimSpace(options.RepositoryPath)
	normalizedOptions.UpstreamRemoteName = strings.TrimSpace(options.UpstreamRemoteName)
	normalizedOptions.UpstreamRemoteURL = strings.TrimSpace(options.UpstreamRemoteURL)
	normalizedOptions.UpstreamBranch = strings.TrimSpace(options.UpstreamBranch)
	normalizedOptions.TargetBranch = strings.TrimSpace(options.TargetBranch)
	normalizedOptions.ExpectedOriginOwnerRepository = strings.TrimSpace(options.ExpectedOriginOwnerRepository)

	if len(normalizedOptions.RepositoryPath) == 0 {
		return Options{}, ErrRepositoryPathRequired
	}
	if len(normalizedOptions.UpstreamRemoteURL) == 0 {
		return Options{}, ErrUpstreamRemoteURLRequired
	}
	if len(normalizedOptions.UpstreamBranch) == 0 {
		return Options{}, ErrUpstreamBranchRequired
	}
	if len(normalizedOptions.TargetBranch) == 0 {
		return Options{}, ErrTargetBranchRequired
	}
	if len(normalizedOptions.UpstreamRemoteName) == 0 {
		normalizedOptions.UpstreamRemoteName = defaultUpstreamRemoteNameConstant
	}
	return normalizedOptions, nil
}

func disabledTerminalPromptEnvironment() map[string]string {
	return map[string]string{gitTerminalPromptVariableNameConstant: gitTerminalPromptDisabledValueConstant}
}

func splitNonEmptyLines(rawOutput string) []string {
	var lines []string
	for _, candidateLine := range strings.Split(rawOutput, "\n") {
		trimmedLine := strings.TrimSpace(candidateLine)
		if len(trimmedLine) > 0 {
			lines = append(lines, trimmedLine)
		}
	}
	return lines
}
