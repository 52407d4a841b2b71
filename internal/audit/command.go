package audit

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/apisec/internal/binaries"
	"github.com/temirov/apisec/internal/codescanning"
	"github.com/temirov/apisec/internal/environment"
	"github.com/temirov/apisec/internal/execshell"
	"github.com/temirov/apisec/internal/ui"
	"github.com/temirov/apisec/internal/utils/flags"
)

const (
	scanCommandUseConstant              = "scan"
	scanCommandShortDescriptionConstant = "Audit API specifications and publish SARIF results"
	scanCommandLongDescriptionConstant  = "scan runs the external security audit over the API specifications in the input directory, converts the reports to SARIF, and optionally uploads, enforces, and merges them."
	inputFlagNameConstant               = "input"
	inputFlagUsageConstant              = "directory searched for API specifications"
	consoleFlagNameConstant             = "console"
	consoleFlagUsageConstant            = "log command progress in human readable form"
	binaryUnavailableBannerTitle        = "Audit binary not available"
	workingDirectoryErrorTemplate       = "unable to determine working directory: %w"
)

// LoggerProvider supplies a zap logger tuned to the requested audit log level.
type LoggerProvider func(logLevel string) *zap.Logger

// EnvironmentLoaderProvider supplies the environment configuration loader.
type EnvironmentLoaderProvider func() *environment.Loader

// ConfigurationProvider supplies the resolved scan configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the scan cobra command.
type CommandBuilder struct {
	LoggerProvider            LoggerProvider
	EnvironmentLoaderProvider EnvironmentLoaderProvider
	ConfigurationProvider     ConfigurationProvider
	Uploader                  ReportUploader
	CommandRunner             execshell.CommandRunner
	BinaryLocator             *binaries.Locator
	OutputWriter              io.Writer

	inputDirectoryFlagValue string
	consoleFlagValue        bool
}

// Build constructs the cobra command running the audit pipeline.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scanCommandUseConstant,
		Short: scanCommandShortDescriptionConstant,
		Long:  scanCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().StringVar(&builder.inputDirectoryFlagValue, inputFlagNameConstant, defaultInputDirectoryConstant, inputFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &builder.consoleFlagValue, consoleFlagNameConstant, "", false, consoleFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(inputFlagNameConstant) {
		configuration.InputDirectory = builder.inputDirectoryFlagValue
	}
	if command.Flags().Changed(consoleFlagNameConstant) {
		configuration.ConsoleLogging = builder.consoleFlagValue
	}
	inputDirectory := configuration.InputDirectory
	consoleLogging := configuration.ConsoleLogging

	runningConfiguration := builder.resolveEnvironmentLoader().LoadRunningConfiguration()
	logger := builder.resolveLogger(runningConfiguration.LogLevel)

	binaryPath, binaryError := builder.resolveBinaryLocator().Resolve(runtime.GOOS, runningConfiguration.LocalDevelopment)
	if binaryError != nil {
		logger.Error(ui.FailureBanner(binaryUnavailableBannerTitle, binaryError.Error()))
		return binaryError
	}

	baseDirectory, baseDirectoryError := builder.resolveBaseDirectory(inputDirectory)
	if baseDirectoryError != nil {
		return baseDirectoryError
	}

	observers := []execshell.CommandEventObserver{}
	if consoleLogging {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}
	executor, executorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner(), observers...)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(ServiceOptions{
		Logger:       logger,
		Executor:     executor,
		Uploader:     builder.resolveUploader(),
		OutputWriter: builder.resolveOutputWriter(),
	})
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), ExecutionInputs{
		RunningConfiguration: runningConfiguration,
		BinaryPath:           binaryPath,
		BaseDirectory:        baseDirectory,
	})
}

func (builder *CommandBuilder) resolveBaseDirectory(inputDirectory string) (string, error) {
	trimmedDirectory := strings.TrimSpace(inputDirectory)
	if len(trimmedDirectory) > 0 && trimmedDirectory != defaultInputDirectoryConstant {
		return trimmedDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplate, workingDirectoryError)
	}
	return workingDirectory, nil
}

func (builder *CommandBuilder) resolveLogger(logLevel string) *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider(logLevel)
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider()
	}
	return CommandConfiguration{InputDirectory: defaultInputDirectoryConstant}
}

func (builder *CommandBuilder) resolveEnvironmentLoader() *environment.Loader {
	if builder.EnvironmentLoaderProvider != nil {
		if loader := builder.EnvironmentLoaderProvider(); loader != nil {
			return loader
		}
	}
	return environment.NewLoader(nil)
}

func (builder *CommandBuilder) resolveUploader() ReportUploader {
	if builder.Uploader != nil {
		return builder.Uploader
	}
	return codescanning.NewUploader(http.DefaultClient, "")
}

func (builder *CommandBuilder) resolveBinaryLocator() *binaries.Locator {
	if builder.BinaryLocator != nil {
		return builder.BinaryLocator
	}
	return binaries.NewLocator(nil)
}

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner != nil {
		return builder.CommandRunner
	}
	return execshell.NewOSCommandRunner()
}

func (builder *CommandBuilder) resolveOutputWriter() io.Writer {
	if builder.OutputWriter != nil {
		return builder.OutputWriter
	}
	return os.Stdout
}
