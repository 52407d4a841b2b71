package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/apisec/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testFailureStandardErrorConstant             = "boom"
	testFailureExitCodeConstant                  = 2
	testFailureExitCodeFragmentConstant          = "exit code 2"
	testRunnerErrorMessageConstant               = "runner failure"
	testAuditControllerNameConstant              = "42ctl"
	testCommandLineConstant                      = "42ctl audit run local"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testFailureStandardErrorConstant,
				ExitCode:      testFailureExitCodeConstant,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New(testRunnerErrorMessageConstant),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)
			runner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			executor, creationError := execshell.NewShellExecutor(logger, runner)
			require.NoError(testInstance, creationError)

			executionResult, executionError := executor.ExecuteAuditController(context.Background(), execshell.CommandDetails{})

			require.Len(testInstance, runner.recordedCommands, 1)
			require.Equal(testInstance, execshell.CommandAuditController, runner.recordedCommands[0].Name)
			require.Equal(testInstance, testCase.expectedLogCount, observedLogs.Len())

			if testCase.expectErrorType == nil {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult, executionResult)
				return
			}

			require.Error(testInstance, executionError)
			switch testCase.expectErrorType.(type) {
			case execshell.CommandFailedError:
				failedError := execshell.CommandFailedError{}
				require.ErrorAs(testInstance, executionError, &failedError)
			case execshell.CommandExecutionError:
				executionFailure := execshell.CommandExecutionError{}
				require.ErrorAs(testInstance, executionError, &executionFailure)
			}
		})
	}
}

func TestCommandFailedErrorMessageIncludesExitCodeAndStandardError(testInstance *testing.T) {
	failedError := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandAuditController},
		Result: execshell.ExecutionResult{
			StandardError: testFailureStandardErrorConstant,
			ExitCode:      testFailureExitCodeConstant,
		},
	}

	errorMessage := failedError.Error()

	require.Contains(testInstance, errorMessage, testFailureExitCodeFragmentConstant)
	require.Contains(testInstance, errorMessage, testFailureStandardErrorConstant)
}

func TestParseCommandLine(testInstance *testing.T) {
	commandName, commandDetails := execshell.ParseCommandLine(testCommandLineConstant)

	require.Equal(testInstance, execshell.CommandName(testAuditControllerNameConstant), commandName)
	require.Equal(testInstance, []string{"audit", "run", "local"}, commandDetails.Arguments)
}
