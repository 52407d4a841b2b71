package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/apisec/internal/codescanning"
	"github.com/temirov/apisec/internal/discovery"
	"github.com/temirov/apisec/internal/environment"
	"github.com/temirov/apisec/internal/execshell"
	"github.com/temirov/apisec/internal/sarif"
	"github.com/temirov/apisec/internal/ui"
)

const (
	auditSubcommandConstant             = "audit"
	runSubcommandConstant               = "run"
	localSubcommandConstant             = "local"
	reportSubcommandConstant            = "report"
	sarifSubcommandConstant             = "sarif"
	convertSubcommandConstant           = "convert"
	mergeSubcommandConstant             = "merge"
	binaryFlagConstant                  = "-b"
	inputFlagConstant                   = "-i"
	resultFlagConstant                  = "-r"
	copyOpenAPIFlagConstant             = "-c"
	githubUserFlagConstant              = "--github-user"
	githubOrganizationFlagConstant      = "--github-org"
	logLevelFlagConstant                = "--log-level"
	githubRepositoryFlagConstant        = "--github-repo"
	enrichFlagConstant                  = "--enrich"
	outputFlagConstant                  = "-o"
	openAPIFlagConstant                 = "-a"
	auditReportNameMarkerConstant       = "audit-report"
	auditReportSuffixConstant           = ".audit-report.json"
	sarifFileExtensionConstant          = ".sarif"
	uuidDashConstant                    = "-"
	standardOutputHeadingConstant       = "STDOUT"
	standardErrorHeadingConstant        = "STDERR"
	auditFailedBannerTitleConstant      = "Audit command failed"
	conversionFailedBannerTitle         = "Convert to SARIF command failed"
	uploadFailedBannerTitleConstant     = "Upload to code scanning failed"
	gateViolationBannerTitleConstant    = "Security issues found"
	gateViolationBannerTemplate         = "%d issues found"
	mergeFailedBannerTitleConstant      = "Merge SARIF files command failed"
	listReportsErrorTemplateConstant    = "unable to list audit reports in %s: %w"
	discoverySummaryMessageConstant     = "api specification discovery"
	discoveryFailedMessageConstant      = "api specification discovery failed"
	runningAuditMessageConstant         = "running audit"
	convertingReportsMessageConstant    = "converting the audit reports to SARIF"
	convertingReportMessageConstant     = "converting audit report"
	uploadingReportMessageConstant      = "uploading SARIF report to code scanning"
	checkingReportMessageConstant       = "checking SARIF report for security issues"
	mergingReportsMessageConstant       = "merging SARIF reports"
	outputDirectoryFieldNameConstant    = "output_directory"
	inputDirectoryFieldNameConstant     = "input_directory"
	reportFieldNameConstant             = "audit_report"
	sarifReportFieldNameConstant        = "sarif_report"
	openAPIFieldNameConstant            = "openapi_file"
	discoverySummaryFieldNameConstant   = "summary"
	issueCountFieldNameConstant         = "issue_count"
	issuesFoundFieldNameConstant        = "issues_found"
	mergeTargetFieldNameConstant        = "merge_target"
	entryCountFieldNameConstant         = "entry_count"
	uploadEnabledFieldNameConstant      = "upload_enabled"
	enforcementEnabledFieldNameConstant = "enforcement_enabled"
)

// CommandExecutor runs the external audit controller.
type CommandExecutor interface {
	ExecuteAuditController(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ReportUploader publishes SARIF reports to code scanning.
type ReportUploader interface {
	Upload(executionContext context.Context, uploadRequest codescanning.UploadRequest) error
}

// GateFunction evaluates a SARIF report for findings.
type GateFunction func(reportPath string) (sarif.GateEvaluation, error)

// DirectoryNameFunction produces the name of the per-run output directory.
type DirectoryNameFunction func() string

// ExecutionInputs carries the resolved context for one audit pipeline run.
type ExecutionInputs struct {
	RunningConfiguration environment.RunningConfiguration
	BinaryPath           string
	BaseDirectory        string
}

// Service drives the audit pipeline: run the audit, convert reports to SARIF,
// optionally upload them, optionally enforce the gate, and optionally merge.
type Service struct {
	logger        *zap.Logger
	executor      CommandExecutor
	uploader      ReportUploader
	gate          GateFunction
	scanner       *discovery.Scanner
	outputWriter  io.Writer
	directoryName DirectoryNameFunction
}

// ServiceOptions configures a Service; nil fields fall back to production defaults.
type ServiceOptions struct {
	Logger        *zap.Logger
	Executor      CommandExecutor
	Uploader      ReportUploader
	Gate          GateFunction
	Scanner       *discovery.Scanner
	OutputWriter  io.Writer
	DirectoryName DirectoryNameFunction
}

// NewService constructs a Service from the provided options.
func NewService(options ServiceOptions) (*Service, error) {
	if options.Executor == nil {
		return nil, execshell.ErrCommandRunnerNotConfigured
	}

	resolvedLogger := options.Logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}
	resolvedGate := options.Gate
	if resolvedGate == nil {
		resolvedGate = sarif.EvaluateReport
	}
	resolvedScanner := options.Scanner
	if resolvedScanner == nil {
		resolvedScanner = discovery.NewScanner()
	}
	resolvedOutputWriter := options.OutputWriter
	if resolvedOutputWriter == nil {
		resolvedOutputWriter = os.Stdout
	}
	resolvedDirectoryName := options.DirectoryName
	if resolvedDirectoryName == nil {
		resolvedDirectoryName = hexRunDirectoryName
	}

	return &Service{
		logger:        resolvedLogger,
		executor:      options.Executor,
		uploader:      options.Uploader,
		gate:          resolvedGate,
		scanner:       resolvedScanner,
		outputWriter:  resolvedOutputWriter,
		directoryName: resolvedDirectoryName,
	}, nil
}

// Run executes the full audit pipeline and returns the first fatal error.
func (service *Service) Run(executionContext context.Context, inputs ExecutionInputs) error {
	outputDirectory := filepath.Join(inputs.BaseDirectory, service.directoryName())

	service.logDiscoverySummary(inputs.BaseDirectory)

	if auditError := service.runAudit(executionContext, inputs, outputDirectory); auditError != nil {
		return auditError
	}

	convertedReports, conversionError := service.convertReports(executionContext, inputs, outputDirectory)
	if conversionError != nil {
		return conversionError
	}

	return service.mergeReports(executionContext, inputs, convertedReports)
}

func (service *Service) logDiscoverySummary(baseDirectory string) {
	discoverySummary, scanError := service.scanner.Scan(baseDirectory)
	if scanError != nil {
		service.logger.Debug(discoveryFailedMessageConstant, zap.Error(scanError))
		return
	}
	service.logger.Debug(discoverySummaryMessageConstant,
		zap.String(inputDirectoryFieldNameConstant, baseDirectory),
		zap.String(discoverySummaryFieldNameConstant, discoverySummary.String()),
	)
}

func (service *Service) runAudit(executionContext context.Context, inputs ExecutionInputs, outputDirectory string) error {
	auditArguments := []string{
		auditSubcommandConstant,
		runSubcommandConstant,
		localSubcommandConstant,
		binaryFlagConstant, inputs.BinaryPath,
		inputFlagConstant, inputs.BaseDirectory,
		resultFlagConstant, outputDirectory,
		copyOpenAPIFlagConstant,
		githubUserFlagConstant, inputs.RunningConfiguration.GitHubRepositoryOwner,
		githubOrganizationFlagConstant, inputs.RunningConfiguration.GitHubOrganization,
		logLevelFlagConstant, inputs.RunningConfiguration.LogLevel,
		githubRepositoryFlagConstant, inputs.RunningConfiguration.GitHubRepository,
	}
	if inputs.RunningConfiguration.DataEnrich {
		auditArguments = append(auditArguments, enrichFlagConstant)
	}

	service.logger.Info(runningAuditMessageConstant,
		zap.String(inputDirectoryFieldNameConstant, inputs.BaseDirectory),
		zap.String(outputDirectoryFieldNameConstant, outputDirectory),
	)

	executionResult, auditError := service.executor.ExecuteAuditController(executionContext, execshell.CommandDetails{Arguments: auditArguments})
	if auditError != nil {
		service.logger.Error(ui.FailureBanner(auditFailedBannerTitleConstant, auditError.Error()))
		return auditError
	}

	fmt.Fprintln(service.outputWriter, standardOutputHeadingConstant)
	fmt.Fprintln(service.outputWriter, executionResult.StandardOutput)
	fmt.Fprintln(service.outputWriter, standardErrorHeadingConstant)
	fmt.Fprintln(service.outputWriter, executionResult.StandardError)

	return nil
}

func (service *Service) convertReports(executionContext context.Context, inputs ExecutionInputs, outputDirectory string) ([]string, error) {
	directoryEntries, listError := os.ReadDir(outputDirectory)
	if listError != nil {
		return nil, fmt.Errorf(listReportsErrorTemplateConstant, outputDirectory, listError)
	}

	service.logger.Debug(convertingReportsMessageConstant, zap.String(outputDirectoryFieldNameConstant, outputDirectory), zap.Int(entryCountFieldNameConstant, len(directoryEntries)))

	convertedReports := []string{}
	for _, directoryEntry := range directoryEntries {
		reportName := directoryEntry.Name()
		if !strings.Contains(reportName, auditReportNameMarkerConstant) {
			continue
		}

		reportPath := filepath.Join(outputDirectory, reportName)
		openAPIFile := strings.ReplaceAll(reportName, auditReportSuffixConstant, "")
		sarifFile := sarifFileName(reportPath)

		service.logger.Debug(convertingReportMessageConstant,
			zap.String(reportFieldNameConstant, reportPath),
			zap.String(openAPIFieldNameConstant, openAPIFile),
			zap.String(sarifReportFieldNameConstant, sarifFile),
		)

		conversionArguments := []string{
			auditSubcommandConstant,
			reportSubcommandConstant,
			sarifSubcommandConstant,
			convertSubcommandConstant,
			resultFlagConstant, reportPath,
			openAPIFlagConstant, openAPIFile,
			outputFlagConstant, sarifFile,
		}
		if _, conversionError := service.executor.ExecuteAuditController(executionContext, execshell.CommandDetails{Arguments: conversionArguments}); conversionError != nil {
			service.logger.Error(ui.FailureBanner(conversionFailedBannerTitle, conversionError.Error()))
			continue
		}

		convertedReports = append(convertedReports, sarifFile)

		if uploadError := service.uploadReport(executionContext, inputs, sarifFile); uploadError != nil {
			return nil, uploadError
		}

		if enforcementError := service.enforceGate(inputs, sarifFile); enforcementError != nil {
			return nil, enforcementError
		}
	}

	return convertedReports, nil
}

func (service *Service) uploadReport(executionContext context.Context, inputs ExecutionInputs, sarifFile string) error {
	service.logger.Debug(uploadingReportMessageConstant,
		zap.Bool(uploadEnabledFieldNameConstant, inputs.RunningConfiguration.UploadToCodeScanning),
		zap.String(sarifReportFieldNameConstant, sarifFile),
	)
	if !inputs.RunningConfiguration.UploadToCodeScanning {
		return nil
	}
	if service.uploader == nil {
		return nil
	}

	service.logger.Info(uploadingReportMessageConstant, zap.String(sarifReportFieldNameConstant, sarifFile))

	uploadRequest := codescanning.UploadRequest{
		ReportPath: sarifFile,
		Repository: inputs.RunningConfiguration.GitHubRepository,
		CommitSHA:  inputs.RunningConfiguration.GitHubSHA,
		Reference:  inputs.RunningConfiguration.GitHubRef,
		Token:      inputs.RunningConfiguration.GitHubToken,
	}
	if uploadError := service.uploader.Upload(executionContext, uploadRequest); uploadError != nil {
		service.logger.Error(ui.FailureBanner(uploadFailedBannerTitleConstant, uploadError.Error()))
		return uploadError
	}
	return nil
}

func (service *Service) enforceGate(inputs ExecutionInputs, sarifFile string) error {
	service.logger.Debug(checkingReportMessageConstant,
		zap.Bool(enforcementEnabledFieldNameConstant, inputs.RunningConfiguration.Enforce),
		zap.String(sarifReportFieldNameConstant, sarifFile),
	)
	if !inputs.RunningConfiguration.Enforce {
		return nil
	}

	service.logger.Info(checkingReportMessageConstant, zap.String(sarifReportFieldNameConstant, sarifFile))

	gateEvaluation, gateError := service.gate(sarifFile)
	if gateError != nil {
		return gateError
	}

	service.logger.Info(checkingReportMessageConstant,
		zap.Bool(issuesFoundFieldNameConstant, gateEvaluation.IssuesFound),
		zap.Int(issueCountFieldNameConstant, gateEvaluation.IssueCount),
	)

	if gateEvaluation.IssuesFound {
		bannerMessage := fmt.Sprintf(gateViolationBannerTemplate, gateEvaluation.IssueCount)
		service.logger.Error(ui.FailureBanner(gateViolationBannerTitleConstant, bannerMessage))
		return sarif.GateViolationError{IssueCount: gateEvaluation.IssueCount}
	}
	return nil
}

func (service *Service) mergeReports(executionContext context.Context, inputs ExecutionInputs, convertedReports []string) error {
	mergeTarget := inputs.RunningConfiguration.SarifReport
	if len(mergeTarget) == 0 {
		return nil
	}

	service.logger.Info(mergingReportsMessageConstant,
		zap.String(mergeTargetFieldNameConstant, mergeTarget),
		zap.Strings(sarifReportFieldNameConstant, convertedReports),
	)

	mergeArguments := []string{
		auditSubcommandConstant,
		reportSubcommandConstant,
		sarifSubcommandConstant,
		mergeSubcommandConstant,
		outputFlagConstant, mergeTarget,
	}
	mergeArguments = append(mergeArguments, convertedReports...)

	if _, mergeError := service.executor.ExecuteAuditController(executionContext, execshell.CommandDetails{Arguments: mergeArguments}); mergeError != nil {
		service.logger.Error(ui.FailureBanner(mergeFailedBannerTitleConstant, mergeError.Error()))
		return mergeError
	}
	return nil
}

// sarifFileName swaps the report's extension for .sarif and drops the directory,
// leaving the SARIF file in the working directory.
func sarifFileName(reportPath string) string {
	baseName := filepath.Base(reportPath)
	extension := filepath.Ext(baseName)
	return strings.TrimSuffix(baseName, extension) + sarifFileExtensionConstant
}

// hexRunDirectoryName renders a random identifier as 32 hexadecimal characters.
func hexRunDirectoryName() string {
	return strings.ReplaceAll(uuid.NewString(), uuidDashConstant, "")
}
