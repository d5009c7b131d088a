package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forkops/forksync/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant        = "git executor not configured"
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	remoteNameRequiredMessageConstant           = "remote name must be provided"
	remoteURLRequiredMessageConstant            = "remote url must be provided"
	revisionRequiredMessageConstant             = "revision must be provided"
	worktreeStatusErrorTemplateConstant         = "failed to inspect worktree status: %w"
	currentBranchErrorTemplateConstant          = "failed to resolve current branch: %w"
	remoteLookupErrorTemplateConstant           = "failed to read url for remote %q: %w"
	remoteAddErrorTemplateConstant              = "failed to add remote %q: %w"
	remoteUpdateErrorTemplateConstant           = "failed to update url for remote %q: %w"
	revisionResolutionErrorTemplateConstant     = "failed to resolve revision %q: %w"
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitRevParseAbbreviatedReferenceFlagConstant = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitRemoteSubcommandConstant                 = "remote"
	gitRemoteGetURLSubcommandConstant           = "get-url"
	gitRemoteAddSubcommandConstant              = "add"
	gitRemoteSetURLSubcommandConstant           = "set-url"
)

// ErrExecutorNotConfigured indicates the repository manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates a repository path argument was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrRemoteNameRequired indicates a remote name argument was empty.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// ErrRemoteURLRequired indicates a remote url argument was empty.
var ErrRemoteURLRequired = errors.New(remoteURLRequiredMessageConstant)

// ErrRevisionRequired indicates a revision argument was empty.
var ErrRevisionRequired = errors.New(revisionRequiredMessageConstant)

// GitExecutor exposes the subset of shell execution required by the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs repository-level git operations through a shell executor.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the repository worktree contains no uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return false, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return false, fmt.Errorf(worktreeStatusErrorTemplateConstant, executionError)
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// GetCurrentBranch returns the branch currently checked out in the repository.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitRevParseAbbreviatedReferenceFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return "", fmt.Errorf(currentBranchErrorTemplateConstant, executionError)
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// GetRemoteURL returns the url configured for the named remote. Missing remotes surface as errors.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return "", ErrRemoteNameRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemoteName},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return "", fmt.Errorf(remoteLookupErrorTemplateConstant, trimmedRemoteName, executionError)
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// AddRemote registers a new named remote pointing at the provided url.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return ErrRemoteNameRequired
	}
	trimmedRemoteURL := strings.TrimSpace(remoteURL)
	if len(trimmedRemoteURL) == 0 {
		return ErrRemoteURLRequired
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteAddSubcommandConstant, trimmedRemoteName, trimmedRemoteURL},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return fmt.Errorf(remoteAddErrorTemplateConstant, trimmedRemoteName, executionError)
	}

	return nil
}

// SetRemoteURL updates the url configured for an existing named remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		return ErrRemoteNameRequired
	}
	trimmedRemoteURL := strings.TrimSpace(remoteURL)
	if len(trimmedRemoteURL) == 0 {
		return ErrRemoteURLRequired
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteSetURLSubcommandConstant, trimmedRemoteName, trimmedRemoteURL},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return fmt.Errorf(remoteUpdateErrorTemplateConstant, trimmedRemoteName, executionError)
	}

	return nil
}

// ResolveCommit resolves a revision expression to a full commit hash.
func (manager *RepositoryManager) ResolveCommit(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	trimmedRevision := strings.TrimSpace(revision)
	if len(trimmedRevision) == 0 {
		return "", ErrRevisionRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, trimmedRevision},
		WorkingDirectory: trimmedRepositoryPath,
	})
	if executionError != nil {
		return "", fmt.Errorf(revisionResolutionErrorTemplateConstant, trimmedRevision, executionError)
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}
