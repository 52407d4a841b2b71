package sarif

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/apisec/internal/ui"
)

const (
	gateCommandUseConstant              = "gate <sarif-report>"
	gateCommandShortDescriptionConstant = "Evaluate the security gate over a SARIF report"
	gateCommandLongDescriptionConstant  = "gate fails with a non-zero exit code when the SARIF report contains any findings."
	gateReportPathRequiredMessage       = "SARIF report path required"
	gateViolationBannerTitleConstant    = "Security issues found"
	gateViolationBannerTemplateConstant = "%d issues found"
	gateNoIssuesMessageConstant         = "no security issues found"
	gateReportFieldNameConstant         = "sarif_report"
	gateIssueCountFieldNameConstant     = "issue_count"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// GateCommandBuilder assembles the gate cobra command.
type GateCommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the cobra command evaluating the security gate.
func (builder *GateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   gateCommandUseConstant,
		Short: gateCommandShortDescriptionConstant,
		Long:  gateCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *GateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	reportPath := ""
	if len(arguments) > 0 {
		reportPath = strings.TrimSpace(arguments[0])
	}
	if len(reportPath) == 0 {
		if helpError := command.Help(); helpError != nil {
			return helpError
		}
		return errors.New(gateReportPathRequiredMessage)
	}

	logger := builder.resolveLogger()

	evaluation, evaluationError := EvaluateReport(reportPath)
	if evaluationError != nil {
		return evaluationError
	}

	if evaluation.IssuesFound {
		violation := GateViolationError{IssueCount: evaluation.IssueCount}
		bannerMessage := fmt.Sprintf(gateViolationBannerTemplateConstant, evaluation.IssueCount)
		logger.Error(ui.FailureBanner(gateViolationBannerTitleConstant, bannerMessage),
			zap.String(gateReportFieldNameConstant, reportPath),
			zap.Int(gateIssueCountFieldNameConstant, evaluation.IssueCount),
		)
		return violation
	}

	logger.Info(gateNoIssuesMessageConstant, zap.String(gateReportFieldNameConstant, reportPath))
	return nil
}

func (builder *GateCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
