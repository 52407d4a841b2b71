package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	auditControllerCommandNameConstant        = "42ctl"
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedMessageTemplateConstant      = "%s command failed with exit code %d"
	commandStandardOutputTemplateConstant     = "stdout: %s"
	commandStandardErrorTemplateConstant      = "stderr: %s"
	commandExecutionMessageTemplateConstant   = "%s command execution failed: %s"
	commandMessagePartSeparatorConstant       = "\n"
	commandLineSeparatorConstant              = " "
)

// CommandName identifies an external executable supported by the executor.
type CommandName string

// CommandAuditController is the 42Crunch controller CLI driving audits, conversions, and merges.
const CommandAuditController CommandName = CommandName(auditControllerCommandNameConstant)

// CommandDetails describes one external command invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel construction errors for ShellExecutor.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error concatenates the exit code with any captured stdout and stderr.
func (failedError CommandFailedError) Error() string {
	messageParts := []string{
		fmt.Sprintf(commandFailedMessageTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode),
	}

	if len(failedError.Result.StandardOutput) > 0 {
		messageParts = append(messageParts, fmt.Sprintf(commandStandardOutputTemplateConstant, failedError.Result.StandardOutput))
	}

	if len(failedError.Result.StandardError) > 0 {
		messageParts = append(messageParts, fmt.Sprintf(commandStandardErrorTemplateConstant, failedError.Result.StandardError))
	}

	return strings.Join(messageParts, commandMessagePartSeparatorConstant)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionMessageTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ParseCommandLine splits a space-delimited command line into a command name and details.
// Splitting is naive: arguments containing embedded spaces are not supported.
func ParseCommandLine(commandLine string) (CommandName, CommandDetails) {
	segments := strings.Split(commandLine, commandLineSeparatorConstant)
	if len(segments) == 0 {
		return CommandName(""), CommandDetails{}
	}
	return CommandName(segments[0]), CommandDetails{Arguments: segments[1:]}
}

// ShellExecutor runs external commands with structured logging and lifecycle notifications.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observers []CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	registeredObservers := make([]CommandEventObserver, 0, len(observers))
	for _, observer := range observers {
		if observer == nil {
			continue
		}
		registeredObservers = append(registeredObservers, observer)
	}

	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observers: registeredObservers,
		formatter: CommandMessageFormatter{},
	}, nil
}

// ExecuteAuditController runs the 42ctl controller with the provided details.
func (executor *ShellExecutor) ExecuteAuditController(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	command := ShellCommand{Name: CommandAuditController, Details: details}
	return executor.Execute(executionContext, command)
}

// ExecuteCommandLine parses a space-delimited command line and runs it.
func (executor *ShellExecutor) ExecuteCommandLine(executionContext context.Context, commandLine string) (ExecutionResult, error) {
	commandName, commandDetails := ParseCommandLine(commandLine)
	return executor.Execute(executionContext, ShellCommand{Name: commandName, Details: commandDetails})
}

// Execute runs the command, logging lifecycle events and translating failures into typed errors.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(executor.formatter.BuildStartedMessage(command))
	for _, observer := range executor.observers {
		observer.CommandStarted(command)
	}

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(command, runError))
		for _, observer := range executor.observers {
			observer.CommandExecutionFailed(command, runError)
		}
		return ExecutionResult{}, executionFailure
	}

	for _, observer := range executor.observers {
		observer.CommandCompleted(command, executionResult)
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Error(executor.formatter.BuildFailureMessage(command, executionResult))
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executor.formatter.BuildSuccessMessage(command))
	return executionResult, nil
}
