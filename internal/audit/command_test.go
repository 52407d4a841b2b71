package audit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/apisec/internal/audit"
	"github.com/temirov/apisec/internal/binaries"
	"github.com/temirov/apisec/internal/environment"
	"github.com/temirov/apisec/internal/execshell"
)

const (
	testInputFlagNameConstant            = "--input"
	testRunSubcommandConstant            = "run"
	testOutputFlagNameConstant           = "-r"
	testBinaryFlagNameConstant           = "-b"
	testInputDirectoryFlagNameConstant   = "-i"
	testBinaryUnavailableBannerConstant  = "Audit binary not available"
	testScanStandardOutputConstant       = "audit run complete"
	testRepositoryVariableNameConstant   = "GITHUB_REPOSITORY"
	testOwnerVariableNameConstant        = "GITHUB_REPOSITORY_OWNER"
	testRecordedCommandCountMessagePart  = "expected a single controller invocation"
	testScanCommandSuccessCaseName       = "scan_succeeds_with_explicit_input_directory"
	testScanCommandMissingBinaryCaseName = "scan_fails_when_binary_is_absent"
)

type directoryCreatingRunner struct {
	commands []execshell.ShellCommand
}

// Run records the command and creates the directory following the -r flag so the
// pipeline can list it afterward.
func (runner *directoryCreatingRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	for argumentIndex, argument := range command.Details.Arguments {
		if argument == testOutputFlagNameConstant && argumentIndex+1 < len(command.Details.Arguments) {
			if makeDirectoryError := os.MkdirAll(command.Details.Arguments[argumentIndex+1], 0o755); makeDirectoryError != nil {
				return execshell.ExecutionResult{}, makeDirectoryError
			}
		}
	}
	return execshell.ExecutionResult{StandardOutput: testScanStandardOutputConstant}, nil
}

func regularFileLocator(testInstance *testing.T) *binaries.Locator {
	testInstance.Helper()

	existingFilePath := filepath.Join(testInstance.TempDir(), "binary")
	require.NoError(testInstance, os.WriteFile(existingFilePath, []byte("binary"), 0o755))
	return binaries.NewLocator(func(string) (os.FileInfo, error) {
		return os.Stat(existingFilePath)
	})
}

func environmentLoaderProvider(values map[string]string) audit.EnvironmentLoaderProvider {
	return func() *environment.Loader {
		return environment.NewLoader(func(name string) (string, bool) {
			value, present := values[name]
			return value, present
		})
	}
}

func observedLoggerProvider() (audit.LoggerProvider, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	logger := zap.New(observerCore)
	return func(string) *zap.Logger { return logger }, observedLogs
}

func TestScanCommandRunsPipeline(testInstance *testing.T) {
	testInstance.Run(testScanCommandSuccessCaseName, func(subtestInstance *testing.T) {
		commandRunner := &directoryCreatingRunner{}
		loggerProvider, _ := observedLoggerProvider()
		outputBuffer := &strings.Builder{}
		inputDirectory := subtestInstance.TempDir()

		commandBuilder := &audit.CommandBuilder{
			LoggerProvider: loggerProvider,
			EnvironmentLoaderProvider: environmentLoaderProvider(map[string]string{
				testRepositoryVariableNameConstant: testRepositoryConstant,
				testOwnerVariableNameConstant:      testRepositoryOwnerConstant,
			}),
			Uploader:      &recordingUploader{},
			CommandRunner: commandRunner,
			BinaryLocator: regularFileLocator(subtestInstance),
			OutputWriter:  outputBuffer,
		}
		scanCommand, buildError := commandBuilder.Build()
		require.NoError(subtestInstance, buildError)

		scanCommand.SetArgs([]string{testInputFlagNameConstant, inputDirectory})
		require.NoError(subtestInstance, scanCommand.Execute())

		require.Len(subtestInstance, commandRunner.commands, 1, testRecordedCommandCountMessagePart)
		recordedCommand := commandRunner.commands[0]
		require.Equal(subtestInstance, execshell.CommandAuditController, recordedCommand.Name)
		require.Equal(subtestInstance, testRunSubcommandConstant, recordedCommand.Details.Arguments[1])
		require.Contains(subtestInstance, recordedCommand.Details.Arguments, testBinaryFlagNameConstant)
		require.Contains(subtestInstance, recordedCommand.Details.Arguments, testInputDirectoryFlagNameConstant)
		require.Contains(subtestInstance, recordedCommand.Details.Arguments, inputDirectory)
		require.Contains(subtestInstance, outputBuffer.String(), testScanStandardOutputConstant)
	})
}

func TestScanCommandReportsMissingBinary(testInstance *testing.T) {
	testInstance.Run(testScanCommandMissingBinaryCaseName, func(subtestInstance *testing.T) {
		loggerProvider, observedLogs := observedLoggerProvider()

		commandBuilder := &audit.CommandBuilder{
			LoggerProvider:            loggerProvider,
			EnvironmentLoaderProvider: environmentLoaderProvider(map[string]string{}),
			Uploader:                  &recordingUploader{},
			CommandRunner:             &directoryCreatingRunner{},
			BinaryLocator: binaries.NewLocator(func(string) (os.FileInfo, error) {
				return nil, os.ErrNotExist
			}),
			OutputWriter: &strings.Builder{},
		}
		scanCommand, buildError := commandBuilder.Build()
		require.NoError(subtestInstance, buildError)

		scanCommand.SetArgs([]string{})
		executionError := scanCommand.Execute()

		var notFoundError binaries.BinaryNotFoundError
		require.ErrorAs(subtestInstance, executionError, &notFoundError)
		errorEntries := observedLogs.FilterLevelExact(zap.ErrorLevel).All()
		require.NotEmpty(subtestInstance, errorEntries)
		require.Contains(subtestInstance, errorEntries[0].Message, testBinaryUnavailableBannerConstant)
	})
}
