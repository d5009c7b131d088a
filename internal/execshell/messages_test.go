package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkops/forksync/internal/execshell"
)

const (
	testRepositoryDirectoryConstant = "/tmp/fork"
	testUpstreamRemoteNameConstant  = "upstream"
	testUpstreamBranchNameConstant  = "main"
)

func TestCommandMessageFormatterDescribesGitLifecycle(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name             string
		command          execshell.ShellCommand
		buildMessage     func(execshell.ShellCommand) string
		expectedFragment string
	}{
		{
			name: "fetch_start",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"fetch", testUpstreamRemoteNameConstant, testUpstreamBranchNameConstant}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildStartedMessage,
			expectedFragment: "Fetching upstream main in /tmp/fork",
		},
		{
			name: "merge_success",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"merge", "--ff-only", "upstream/main"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildSuccessMessage,
			expectedFragment: "Merged upstream/main in /tmp/fork",
		},
		{
			name: "checkout_start",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"checkout", "main"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildStartedMessage,
			expectedFragment: "Switching /tmp/fork to branch main",
		},
		{
			name: "push_start",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"push", "origin", "main"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildStartedMessage,
			expectedFragment: "Pushing origin main in /tmp/fork",
		},
		{
			name: "remote_start",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"remote", "get-url", testUpstreamRemoteNameConstant}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildStartedMessage,
			expectedFragment: "Inspecting remotes in /tmp/fork",
		},
		{
			name: "generic_fallback",
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"rev-parse", "HEAD"}, WorkingDirectory: testRepositoryDirectoryConstant},
			},
			buildMessage:     formatter.BuildStartedMessage,
			expectedFragment: "Running git rev-parse HEAD (in /tmp/fork)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedFragment, testCase.buildMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterDescribesFailures(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	mergeCommand := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"merge", "--ff-only", "upstream/main"}, WorkingDirectory: testRepositoryDirectoryConstant},
	}

	failureMessage := formatter.BuildFailureMessage(mergeCommand, execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: not possible to fast-forward"})
	require.Equal(testInstance, "Failed to merge upstream/main in /tmp/fork (exit code 128: fatal: not possible to fast-forward)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(mergeCommand, errors.New("executable not found"))
	require.Equal(testInstance, "Unable to merge upstream/main in /tmp/fork: executable not found", executionFailureMessage)
}
