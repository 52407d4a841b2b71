package codescanning

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/apisec/internal/environment"
	"github.com/temirov/apisec/internal/ui"
)

const (
	uploadCommandUseConstant              = "upload <sarif-report>"
	uploadCommandShortDescriptionConstant = "Upload a SARIF report to GitHub code scanning"
	uploadCommandLongDescriptionConstant  = "upload publishes a SARIF report to the GitHub code scanning API using the repository context from the environment."
	uploadReportPathRequiredMessage       = "SARIF report path required"
	uploadFailureBannerTitleConstant      = "Upload to code scanning failed"
	uploadSucceededMessageConstant        = "uploaded SARIF report to code scanning"
	uploadReportFieldNameConstant         = "sarif_report"
	uploadRepositoryFieldNameConstant     = "repository"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// EnvironmentLoaderProvider supplies the environment configuration loader.
type EnvironmentLoaderProvider func() *environment.Loader

// UploadCommandBuilder assembles the upload cobra command.
type UploadCommandBuilder struct {
	LoggerProvider            LoggerProvider
	EnvironmentLoaderProvider EnvironmentLoaderProvider
	Uploader                  *Uploader
}

// Build constructs the cobra command publishing SARIF reports.
func (builder *UploadCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   uploadCommandUseConstant,
		Short: uploadCommandShortDescriptionConstant,
		Long:  uploadCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *UploadCommandBuilder) run(command *cobra.Command, arguments []string) error {
	reportPath := ""
	if len(arguments) > 0 {
		reportPath = strings.TrimSpace(arguments[0])
	}
	if len(reportPath) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(uploadReportPathRequiredMessage)
	}

	logger := builder.resolveLogger()
	runningConfiguration := builder.resolveEnvironmentLoader().LoadRunningConfiguration()
	uploader := builder.resolveUploader()

	uploadRequest := UploadRequest{
		ReportPath: reportPath,
		Repository: runningConfiguration.GitHubRepository,
		CommitSHA:  runningConfiguration.GitHubSHA,
		Reference:  runningConfiguration.GitHubRef,
		Token:      runningConfiguration.GitHubToken,
	}
	if uploadError := uploader.Upload(command.Context(), uploadRequest); uploadError != nil {
		logger.Error(ui.FailureBanner(uploadFailureBannerTitleConstant, uploadError.Error()),
			zap.String(uploadReportFieldNameConstant, reportPath),
			zap.String(uploadRepositoryFieldNameConstant, runningConfiguration.GitHubRepository),
		)
		return uploadError
	}

	logger.Info(uploadSucceededMessageConstant,
		zap.String(uploadReportFieldNameConstant, reportPath),
		zap.String(uploadRepositoryFieldNameConstant, runningConfiguration.GitHubRepository),
	)
	return nil
}

func (builder *UploadCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *UploadCommandBuilder) resolveEnvironmentLoader() *environment.Loader {
	if builder.EnvironmentLoaderProvider != nil {
		if loader := builder.EnvironmentLoaderProvider(); loader != nil {
			return loader
		}
	}
	return environment.NewLoader(nil)
}

func (builder *UploadCommandBuilder) resolveUploader() *Uploader {
	if builder.Uploader != nil {
		return builder.Uploader
	}
	return NewUploader(nil, "")
}
