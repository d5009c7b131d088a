package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitFetchSubcommandNameConstant    = "fetch"
	gitMergeSubcommandNameConstant    = "merge"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitPushSubcommandNameConstant     = "push"
	gitRemoteSubcommandNameConstant   = "remote"
)

const (
	gitFetchStartTemplateConstant              = "Fetching %s in %s"
	gitFetchSuccessTemplateConstant            = "Fetched %s in %s"
	gitFetchFailureTemplateConstant            = "Failed to fetch %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant   = "Unable to fetch %s in %s: %s"
	gitMergeStartTemplateConstant              = "Merging %s in %s"
	gitMergeSuccessTemplateConstant            = "Merged %s in %s"
	gitMergeFailureTemplateConstant            = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant   = "Unable to merge %s in %s: %s"
	gitCheckoutStartTemplateConstant           = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant         = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant         = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplate        = "Unable to switch %s to branch %s: %s"
	gitPushStartTemplateConstant               = "Pushing %s in %s"
	gitPushSuccessTemplateConstant             = "Pushed %s in %s"
	gitPushFailureTemplateConstant             = "Failed to push %s in %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant    = "Unable to push %s in %s: %s"
	gitRemoteStartTemplateConstant             = "Inspecting remotes in %s"
	gitRemoteSuccessTemplateConstant           = "Inspected remotes in %s"
	gitRemoteFailureTemplateConstant           = "Remote operation failed in %s (exit code %d%s)"
	gitRemoteExecutionFailureTemplateConstant  = "Unable to run remote operation in %s: %s"
	remoteReferencesMissingFallbackLabelValue  = "updates"
	remoteReferencesJoinSeparatorConstantValue = " "
)

// CommandMessageFormatter builds human-readable messages describing command lifecycles.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that exited non-zero.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandGit {
		return formatter.describeGitMessage(command, result, failure, stage)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch command.Details.Arguments[0] {
	case gitFetchSubcommandNameConstant:
		return formatter.describeSubjectMessage(command, result, failure, stage, formatter.describeFetchSubject(command), subjectMessageTemplates{
			start:            gitFetchStartTemplateConstant,
			success:          gitFetchSuccessTemplateConstant,
			failure:          gitFetchFailureTemplateConstant,
			executionFailure: gitFetchExecutionFailureTemplateConstant,
		})
	case gitMergeSubcommandNameConstant:
		return formatter.describeSubjectMessage(command, result, failure, stage, formatter.describeMergeSubject(command), subjectMessageTemplates{
			start:            gitMergeStartTemplateConstant,
			success:          gitMergeSuccessTemplateConstant,
			failure:          gitMergeFailureTemplateConstant,
			executionFailure: gitMergeExecutionFailureTemplateConstant,
		})
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeCheckoutMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeSubjectMessage(command, result, failure, stage, formatter.describePushSubject(command), subjectMessageTemplates{
			start:            gitPushStartTemplateConstant,
			success:          gitPushSuccessTemplateConstant,
			failure:          gitPushFailureTemplateConstant,
			executionFailure: gitPushExecutionFailureTemplateConstant,
		})
	case gitRemoteSubcommandNameConstant:
		return formatter.describeRemoteMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

type subjectMessageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (formatter CommandMessageFormatter) describeSubjectMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, subject string, templates subjectMessageTemplates) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, subject, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	branchName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplate, workingDirectory, branchName, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRemoteStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitRemoteSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitRemoteFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitRemoteExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeFetchSubject(command ShellCommand) string {
	remoteAndReferences := formatter.extractNonFlagArguments(command.Details.Arguments[1:])
	if len(remoteAndReferences) == 0 {
		return remoteReferencesMissingFallbackLabelValue
	}
	return strings.Join(remoteAndReferences, remoteReferencesJoinSeparatorConstantValue)
}

func (formatter CommandMessageFormatter) describeMergeSubject(command ShellCommand) string {
	mergeTarget := formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:])
	return formatter.ensureValue(mergeTarget)
}

func (formatter CommandMessageFormatter) describePushSubject(command ShellCommand) string {
	pushArguments := formatter.extractNonFlagArguments(command.Details.Arguments[1:])
	if len(pushArguments) == 0 {
		return remoteReferencesMissingFallbackLabelValue
	}
	return strings.Join(pushArguments, remoteReferencesJoinSeparatorConstantValue)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, strings.Join(commandParts, commandArgumentsJoinSeparatorConstant), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	nonFlagArguments := formatter.extractNonFlagArguments(arguments)
	if len(nonFlagArguments) == 0 {
		return emptyStringConstant
	}
	return nonFlagArguments[0]
}

func (formatter CommandMessageFormatter) extractNonFlagArguments(arguments []string) []string {
	nonFlagArguments := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if strings.HasPrefix(argument, "-") {
			continue
		}
		nonFlagArguments = append(nonFlagArguments, argument)
	}
	return nonFlagArguments
}
