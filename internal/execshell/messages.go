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
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	auditSubcommandNameConstant   = "audit"
	runSubcommandNameConstant     = "run"
	reportSubcommandNameConstant  = "report"
	sarifSubcommandNameConstant   = "sarif"
	convertSubcommandNameConstant = "convert"
	mergeSubcommandNameConstant   = "merge"
	inputDirectoryFlagConstant    = "-i"
	reportPathFlagConstant        = "-r"
	outputPathFlagConstant        = "-o"
)

const (
	auditRunStartTemplateConstant                = "Auditing API specifications in %s"
	auditRunSuccessTemplateConstant              = "Completed API security audit of %s"
	auditRunFailureTemplateConstant              = "API security audit of %s failed with exit code %d%s"
	auditRunExecutionFailureTemplateConstant     = "Unable to audit %s: %s"
	sarifConvertStartTemplateConstant            = "Converting %s to SARIF at %s"
	sarifConvertSuccessTemplateConstant          = "Converted %s to SARIF at %s"
	sarifConvertFailureTemplateConstant          = "Failed to convert %s to SARIF (exit code %d%s)"
	sarifConvertExecutionFailureTemplateConstant = "Unable to convert %s to SARIF: %s"
	sarifMergeStartTemplateConstant              = "Merging SARIF reports into %s"
	sarifMergeSuccessTemplateConstant            = "Merged SARIF reports into %s"
	sarifMergeFailureTemplateConstant            = "Failed to merge SARIF reports into %s (exit code %d%s)"
	sarifMergeExecutionFailureTemplateConstant   = "Unable to merge SARIF reports into %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name == CommandAuditController {
		return formatter.describeAuditControllerMessage(command, result, failure, stage)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeAuditControllerMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 || strings.TrimSpace(arguments[0]) != auditSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[1]) {
	case runSubcommandNameConstant:
		return formatter.describeAuditRunMessage(command, result, failure, stage)
	case reportSubcommandNameConstant:
		return formatter.describeSarifReportMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeAuditRunMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	inputDirectory := formatter.ensureValue(findFlagValue(command.Details.Arguments, inputDirectoryFlagConstant))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(auditRunStartTemplateConstant, inputDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(auditRunSuccessTemplateConstant, inputDirectory)
	case messageStageFailure:
		return fmt.Sprintf(auditRunFailureTemplateConstant, inputDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(auditRunExecutionFailureTemplateConstant, inputDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSarifReportMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 4 || strings.TrimSpace(arguments[2]) != sarifSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[3]) {
	case convertSubcommandNameConstant:
		return formatter.describeSarifConvertMessage(command, result, failure, stage)
	case mergeSubcommandNameConstant:
		return formatter.describeSarifMergeMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSarifConvertMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	reportPath := formatter.ensureValue(findFlagValue(arguments, reportPathFlagConstant))
	sarifPath := formatter.ensureValue(findFlagValue(arguments, outputPathFlagConstant))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(sarifConvertStartTemplateConstant, reportPath, sarifPath)
	case messageStageSuccess:
		return fmt.Sprintf(sarifConvertSuccessTemplateConstant, reportPath, sarifPath)
	case messageStageFailure:
		return fmt.Sprintf(sarifConvertFailureTemplateConstant, reportPath, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(sarifConvertExecutionFailureTemplateConstant, reportPath, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSarifMergeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	targetPath := formatter.ensureValue(findFlagValue(command.Details.Arguments, outputPathFlagConstant))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(sarifMergeStartTemplateConstant, targetPath)
	case messageStageSuccess:
		return fmt.Sprintf(sarifMergeSuccessTemplateConstant, targetPath)
	case messageStageFailure:
		return fmt.Sprintf(sarifMergeFailureTemplateConstant, targetPath, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(sarifMergeExecutionFailureTemplateConstant, targetPath, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
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
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
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

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
