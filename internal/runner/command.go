package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkops/forksync/internal/execshell"
	"github.com/forkops/forksync/internal/githubapi"
	"github.com/forkops/forksync/internal/githubauth"
	"github.com/forkops/forksync/internal/gitrepo"
	"github.com/forkops/forksync/internal/notice"
	"github.com/forkops/forksync/internal/syncer"
	"github.com/forkops/forksync/internal/ui"
)

const (
	commandUseConstant                 = "run"
	commandShortDescriptionConstant    = "Synchronize the fork with its upstream repository once"
	commandLongDescriptionConstant     = "run fetches the upstream repository, fast-forwards the fork's branch, and manages the failure notice issue based on the outcome."
	unexpectedArgumentsMessageConstant = "run does not accept positional arguments"
	flagRepositoryNameConstant         = "repository"
	flagRepositoryDescriptionConstant  = "Fork repository in owner/name form"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Path to the fork's local clone"
	flagUpstreamBranchNameConstant     = "upstream-branch"
	flagUpstreamBranchDescription      = "Upstream branch to synchronize from (defaults to the parent's default branch)"
	flagTargetBranchNameConstant       = "target-branch"
	flagTargetBranchDescription        = "Local branch to synchronize (defaults to the fork's default branch)"
	flagDryRunNameConstant             = "dry-run"
	flagDryRunDescriptionConstant      = "Report pending upstream commits without merging, pushing, or touching issues"

	skippedMessageTemplateConstant      = "%s is not a fork; nothing to do\n"
	upToDateMessageTemplateConstant     = "%s branch %s already up to date (%s)\n"
	synchronizedMessageTemplateConstant = "%s branch %s synchronized: %d commits applied (%s)\n"
	dryRunMessageTemplateConstant       = "%s branch %s has %d upstream commits pending\n"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the effective command configuration.
type ConfigurationProvider func() CommandConfiguration

// RunExecutor executes synchronization runs.
type RunExecutor interface {
	Execute(executionContext context.Context, options RunOptions) (RunReport, error)
}

// CommandBuilder assembles the Cobra command for a single synchronization run.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Runner                       RunExecutor
	GitHubToken                  string
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)
	command.Flags().String(flagUpstreamBranchNameConstant, "", flagUpstreamBranchDescription)
	command.Flags().String(flagTargetBranchNameConstant, "", flagTargetBranchDescription)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	configuration := builder.resolveConfiguration()
	runOptions := builder.buildRunOptions(command, configuration)
	if len(runOptions.Repository) == 0 {
		return ErrRepositoryRequired
	}
	if len(runOptions.RepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}

	logger := builder.resolveLogger()
	runExecutor, executorError := builder.resolveRunner(logger, configuration, runOptions.Repository)
	if executorError != nil {
		return executorError
	}

	runReport, runError := runExecutor.Execute(command.Context(), runOptions)
	if runError != nil {
		return runError
	}

	switch runReport.Outcome {
	case OutcomeSkippedNotFork:
		fmt.Fprintf(command.OutOrStdout(), skippedMessageTemplateConstant, runReport.Repository)
	case OutcomeUpToDate:
		fmt.Fprintf(command.OutOrStdout(), upToDateMessageTemplateConstant, runReport.Repository, runReport.TargetBranch, runReport.BranchTip)
	case OutcomeDryRun:
		fmt.Fprintf(command.OutOrStdout(), dryRunMessageTemplateConstant, runReport.Repository, runReport.TargetBranch, runReport.AppliedCommitCount)
	default:
		fmt.Fprintf(command.OutOrStdout(), synchronizedMessageTemplateConstant, runReport.Repository, runReport.TargetBranch, runReport.AppliedCommitCount, runReport.BranchTip)
	}

	return nil
}

func (builder *CommandBuilder) buildRunOptions(command *cobra.Command, configuration CommandConfiguration) RunOptions {
	runOptions := RunOptions{
		Repository:           configuration.Repository,
		RepositoryPath:       configuration.RepositoryPath,
		UpstreamRemoteName:   configuration.UpstreamRemoteName,
		UpstreamBranch:       configuration.UpstreamBranch,
		TargetBranch:         configuration.TargetBranch,
		PushToOrigin:         configuration.PushToOrigin,
		RequireCleanWorktree: configuration.RequireCleanWorktree,
		DryRun:               configuration.DryRun,
	}

	if repositoryValue, _ := command.Flags().GetString(flagRepositoryNameConstant); command.Flags().Changed(flagRepositoryNameConstant) {
		runOptions.Repository = strings.TrimSpace(repositoryValue)
	}
	if pathValue, _ := command.Flags().GetString(flagPathNameConstant); command.Flags().Changed(flagPathNameConstant) {
		runOptions.RepositoryPath = strings.TrimSpace(pathValue)
	}
	if upstreamBranchValue, _ := command.Flags().GetString(flagUpstreamBranchNameConstant); command.Flags().Changed(flagUpstreamBranchNameConstant) {
		runOptions.UpstreamBranch = strings.TrimSpace(upstreamBranchValue)
	}
	if targetBranchValue, _ := command.Flags().GetString(flagTargetBranchNameConstant); command.Flags().Changed(flagTargetBranchNameConstant) {
		runOptions.TargetBranch = strings.TrimSpace(targetBranchValue)
	}
	if dryRunValue, _ := command.Flags().GetBool(flagDryRunNameConstant); command.Flags().Changed(flagDryRunNameConstant) {
		runOptions.DryRun = dryRunValue
	}

	return runOptions
}

func (builder *CommandBuilder) resolveRunner(logger *zap.Logger, configuration CommandConfiguration, repositoryIdentifier string) (RunExecutor, error) {
	if builder.Runner != nil {
		return builder.Runner, nil
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	return NewDefaultRunExecutor(logger, configuration, repositoryIdentifier, humanReadableLogging, builder.GitHubToken)
}

// NewDefaultRunExecutor wires the production collaborators: an OS-backed git
// executor, repository manager, synchronizer, GitHub API client, and notice
// manager.
func NewDefaultRunExecutor(logger *zap.Logger, configuration CommandConfiguration, repositoryIdentifier string, humanReadableLogging bool, apiToken string) (RunExecutor, error) {
	if len(strings.TrimSpace(apiToken)) == 0 {
		apiToken, _ = githubauth.ResolveToken(nil)
	}
	apiClient := githubapi.NewClient(apiToken)

	commandRunner := execshell.NewOSCommandRunner()
	var shellExecutor *execshell.ShellExecutor
	var executorError error
	if humanReadableLogging {
		shellExecutor, executorError = execshell.NewShellExecutorWithObserver(logger, commandRunner, ui.NewConsoleCommandEventLogger(logger))
	} else {
		shellExecutor, executorError = execshell.NewShellExecutor(logger, commandRunner)
	}
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}

	synchronizationService, synchronizerError := syncer.NewService(shellExecutor, repositoryManager)
	if synchronizerError != nil {
		return nil, synchronizerError
	}

	noticeManager, noticeError := notice.NewManager(apiClient, repositoryIdentifier, notice.Settings{
		TrackingLabel: configuration.TrackingLabel,
		IssueTitle:    configuration.IssueTitle,
	})
	if noticeError != nil {
		return nil, noticeError
	}

	return NewService(logger, apiClient, synchronizationService, noticeManager)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
