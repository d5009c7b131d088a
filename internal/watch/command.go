package watch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkops/forksync/internal/runner"
)

const (
	commandUseConstant                 = "watch"
	commandShortDescriptionConstant    = "Synchronize the fork with its upstream repository on a schedule"
	commandLongDescriptionConstant     = "watch runs the synchronization immediately and then repeats it at the configured interval until interrupted."
	commandExecutionErrorTemplate      = "watch failed: %w"
	unexpectedArgumentsMessageConstant = "watch does not accept positional arguments"
	flagIntervalNameConstant           = "interval"
	flagIntervalDescriptionConstant    = "Delay between synchronization runs"
	flagRepositoryNameConstant         = "repository"
	flagRepositoryDescriptionConstant  = "Fork repository in owner/name form"
	flagPathNameConstant               = "path"
	flagPathDescriptionConstant        = "Path to the fork's local clone"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the effective watch configuration.
type ConfigurationProvider func() CommandConfiguration

// RunConfigurationProvider supplies the synchronization run configuration.
type RunConfigurationProvider func() runner.CommandConfiguration

// CommandBuilder assembles the Cobra command for scheduled synchronization.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	RunConfigurationProvider     RunConfigurationProvider
	HumanReadableLoggingProvider func() bool
	Runner                       RunExecutor
	GitHubToken                  string
}

// Build constructs the watch command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Duration(flagIntervalNameConstant, 0, flagIntervalDescriptionConstant)
	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().String(flagPathNameConstant, "", flagPathDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	watchConfiguration := builder.resolveConfiguration()
	runConfiguration := builder.resolveRunConfiguration()

	interval := watchConfiguration.Interval
	if intervalValue, _ := command.Flags().GetDuration(flagIntervalNameConstant); command.Flags().Changed(flagIntervalNameConstant) {
		interval = intervalValue
	}

	runOptions := runner.RunOptions{
		Repository:           runConfiguration.Repository,
		RepositoryPath:       runConfiguration.RepositoryPath,
		UpstreamRemoteName:   runConfiguration.UpstreamRemoteName,
		UpstreamBranch:       runConfiguration.UpstreamBranch,
		TargetBranch:         runConfiguration.TargetBranch,
		PushToOrigin:         runConfiguration.PushToOrigin,
		RequireCleanWorktree: runConfiguration.RequireCleanWorktree,
		DryRun:               runConfiguration.DryRun,
	}
	if repositoryValue, _ := command.Flags().GetString(flagRepositoryNameConstant); command.Flags().Changed(flagRepositoryNameConstant) {
		runOptions.Repository = strings.TrimSpace(repositoryValue)
	}
	if pathValue, _ := command.Flags().GetString(flagPathNameConstant); command.Flags().Changed(flagPathNameConstant) {
		runOptions.RepositoryPath = strings.TrimSpace(pathValue)
	}
	if len(runOptions.Repository) == 0 {
		return runner.ErrRepositoryRequired
	}
	if len(runOptions.RepositoryPath) == 0 {
		return runner.ErrRepositoryPathRequired
	}

	logger := builder.resolveLogger()
	runExecutor, executorError := builder.resolveRunner(logger, runConfiguration, runOptions.Repository)
	if executorError != nil {
		return executorError
	}

	watchService, serviceError := NewService(logger, runExecutor)
	if serviceError != nil {
		return serviceError
	}

	watchError := watchService.Watch(command.Context(), Options{Interval: interval, RunOptions: runOptions})
	if watchError != nil {
		return fmt.Errorf(commandExecutionErrorTemplate, watchError)
	}
	return nil
}

func (builder *CommandBuilder) resolveRunner(logger *zap.Logger, runConfiguration runner.CommandConfiguration, repositoryIdentifier string) (RunExecutor, error) {
	if builder.Runner != nil {
		return builder.Runner, nil
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	return runner.NewDefaultRunExecutor(logger, runConfiguration, repositoryIdentifier, humanReadableLogging, builder.GitHubToken)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveRunConfiguration() runner.CommandConfiguration {
	if builder.RunConfigurationProvider == nil {
		return runner.DefaultCommandConfiguration()
	}
	return builder.RunConfigurationProvider().Sanitize()
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
