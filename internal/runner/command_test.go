package runner_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkops/forksync/internal/runner"
	"github.com/forkops/forksync/internal/syncer"
)

const (
	commandRepositoryFlagConstant     = "--repository"
	commandPathFlagConstant           = "--path"
	commandUpstreamBranchFlagConstant = "--upstream-branch"
	commandDryRunFlagConstant         = "--dry-run"
	overrideRepositoryConstant        = "override/fork"
	overridePathConstant              = "/srv/forks/override"
)

type recordingRunExecutor struct {
	report          runner.RunReport
	executionError  error
	receivedOptions []runner.RunOptions
}

func (executor *recordingRunExecutor) Execute(_ context.Context, options runner.RunOptions) (runner.RunReport, error) {
	executor.receivedOptions = append(executor.receivedOptions, options)
	return executor.report, executor.executionError
}

func configuredBuilder(executor *recordingRunExecutor) *runner.CommandBuilder {
	return &runner.CommandBuilder{
		ConfigurationProvider: func() runner.CommandConfiguration {
			configuration := runner.DefaultCommandConfiguration()
			configuration.Repository = forkRepositoryConstant
			configuration.RepositoryPath = repositoryPathConstant
			return configuration
		},
		Runner: executor,
	}
}

func TestCommandRejectsPositionalArguments(testInstance *testing.T) {
	executor := &recordingRunExecutor{}
	command, buildError := configuredBuilder(executor).Build()
	require.NoError(testInstance, buildError)

	command.SetArgs([]string{"unexpected"})
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	require.Error(testInstance, command.Execute())
	require.Empty(testInstance, executor.receivedOptions)
}

func TestCommandRequiresRepositoryAndPath(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration runner.CommandConfiguration
		expectedError error
	}{
		{
			name:          "missing_repository",
			configuration: runner.CommandConfiguration{RepositoryPath: repositoryPathConstant},
			expectedError: runner.ErrRepositoryRequired,
		},
		{
			name:          "missing_path",
			configuration: runner.CommandConfiguration{Repository: forkRepositoryConstant},
			expectedError: runner.ErrRepositoryPathRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingRunExecutor{}
			builder := &runner.CommandBuilder{
				ConfigurationProvider: func() runner.CommandConfiguration { return testCase.configuration },
				Runner:                executor,
			}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			command.SetArgs(nil)
			command.SetOut(&bytes.Buffer{})
			command.SetErr(&bytes.Buffer{})
			require.ErrorIs(testInstance, command.Execute(), testCase.expectedError)
			require.Empty(testInstance, executor.receivedOptions)
		})
	}
}

func TestCommandAppliesConfigurationDefaults(testInstance *testing.T) {
	executor := &recordingRunExecutor{
		report: runner.RunReport{
			Outcome:            runner.OutcomeSynchronized,
			Repository:         forkRepositoryConstant,
			TargetBranch:       "master",
			AppliedCommitCount: 3,
			BranchTip:          branchTipConstant,
		},
	}
	command, buildError := configuredBuilder(executor).Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetArgs(nil)
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, executor.receivedOptions, 1)
	receivedOptions := executor.receivedOptions[0]
	require.Equal(testInstance, forkRepositoryConstant, receivedOptions.Repository)
	require.Equal(testInstance, repositoryPathConstant, receivedOptions.RepositoryPath)
	require.Equal(testInstance, "upstream", receivedOptions.UpstreamRemoteName)
	require.True(testInstance, receivedOptions.PushToOrigin)
	require.True(testInstance, receivedOptions.RequireCleanWorktree)
	require.False(testInstance, receivedOptions.DryRun)
	require.Contains(testInstance, outputBuffer.String(), "3 commits applied")
}

func TestCommandFlagOverridesConfiguration(testInstance *testing.T) {
	executor := &recordingRunExecutor{
		report: runner.RunReport{Outcome: runner.OutcomeDryRun, Repository: overrideRepositoryConstant, TargetBranch: "main", AppliedCommitCount: 2},
	}
	command, buildError := configuredBuilder(executor).Build()
	require.NoError(testInstance, buildError)

	command.SetArgs([]string{
		commandRepositoryFlagConstant, overrideRepositoryConstant,
		commandPathFlagConstant, overridePathConstant,
		commandUpstreamBranchFlagConstant, "develop",
		commandDryRunFlagConstant,
	})
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	require.NoError(testInstance, command.Execute())

	receivedOptions := executor.receivedOptions[0]
	require.Equal(testInstance, overrideRepositoryConstant, receivedOptions.Repository)
	require.Equal(testInstance, overridePathConstant, receivedOptions.RepositoryPath)
	require.Equal(testInstance, "develop", receivedOptions.UpstreamBranch)
	require.True(testInstance, receivedOptions.DryRun)
	require.Contains(testInstance, outputBuffer.String(), "2 upstream commits pending")
}

func TestCommandSurfacesRunFailure(testInstance *testing.T) {
	executor := &recordingRunExecutor{
		executionError: runner.SyncFailureError{Cause: syncer.DivergenceError{TargetBranch: "master", UpstreamRemoteName: "upstream", UpstreamBranch: "main", LocalOnlyCommits: 2}},
	}
	command, buildError := configuredBuilder(executor).Build()
	require.NoError(testInstance, buildError)

	command.SetArgs(nil)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	executionError := command.Execute()
	var syncFailure runner.SyncFailureError
	require.ErrorAs(testInstance, executionError, &syncFailure)
}

func TestCommandReportsSkippedRepositories(testInstance *testing.T) {
	executor := &recordingRunExecutor{
		report: runner.RunReport{Outcome: runner.OutcomeSkippedNotFork, Repository: forkRepositoryConstant},
	}
	command, buildError := configuredBuilder(executor).Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetArgs(nil)
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	require.NoError(testInstance, command.Execute())
	require.Contains(testInstance, outputBuffer.String(), "not a fork")
}
