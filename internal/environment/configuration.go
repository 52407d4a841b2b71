package environment

import (
	"os"
	"strings"
)

const (
	enforceEnvironmentVariableNameConstant              = "INPUT_ENFORCE-SQG"
	dataEnrichEnvironmentVariableNameConstant           = "INPUT_DATA-ENRICH"
	uploadToCodeScanningEnvironmentVariableNameConstant = "INPUT_UPLOAD-TO-CODE-SCANNING"
	logLevelEnvironmentVariableNameConstant             = "INPUT_LOG-LEVEL"
	sarifReportEnvironmentVariableNameConstant          = "INPUT_SARIF-REPORT"
	exportAsPDFEnvironmentVariableNameConstant          = "INPUT_EXPORT-AS-PDF"
	tokenEnvironmentVariableNameConstant                = "INPUT_TOKEN"
	repositoryEnvironmentVariableNameConstant           = "GITHUB_REPOSITORY"
	repositoryOwnerEnvironmentVariableNameConstant      = "GITHUB_REPOSITORY_OWNER"
	referenceEnvironmentVariableNameConstant            = "GITHUB_REF"
	commitSHAEnvironmentVariableNameConstant            = "GITHUB_SHA"
	localDevelopmentEnvironmentVariableNameConstant     = "LOCAL_DEVELOPMENT"
	booleanTrueLiteralConstant                          = "true"
	defaultLogLevelConstant                             = "info"
)

// Recognized audit log levels accepted by INPUT_LOG-LEVEL.
const (
	LogLevelFail  = "fail"
	LogLevelError = "error"
	LogLevelWarn  = "warn"
	LogLevelInfo  = "info"
	LogLevelDebug = "debug"
)

var recognizedLogLevels = map[string]struct{}{
	LogLevelFail:  {},
	LogLevelError: {},
	LogLevelWarn:  {},
	LogLevelInfo:  {},
	LogLevelDebug: {},
}

// RunningConfiguration captures the action inputs and GitHub context for a single invocation.
// It is constructed once at process start and never mutated afterward.
type RunningConfiguration struct {
	Enforce               bool
	DataEnrich            bool
	UploadToCodeScanning  bool
	LogLevel              string
	SarifReport           string
	ExportAsPDF           string
	GitHubToken           string
	GitHubRepository      string
	GitHubOrganization    string
	GitHubRepositoryOwner string
	GitHubRef             string
	GitHubSHA             string
	LocalDevelopment      bool
}

// LookupFunction resolves an environment variable by exact name.
type LookupFunction func(name string) (string, bool)

// Loader reads RunningConfiguration values from the process environment.
type Loader struct {
	lookup LookupFunction
}

// NewLoader constructs a Loader using the provided lookup function, defaulting to os.LookupEnv.
func NewLoader(lookup LookupFunction) *Loader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Loader{lookup: lookup}
}

// LoadRunningConfiguration builds the configuration record from recognized environment variables.
// Loading never fails: unrecognized or absent values resolve to defaults.
func (loader *Loader) LoadRunningConfiguration() RunningConfiguration {
	ownerValue := loader.stringValue(repositoryOwnerEnvironmentVariableNameConstant)

	return RunningConfiguration{
		Enforce:               loader.booleanValue(enforceEnvironmentVariableNameConstant),
		DataEnrich:            loader.booleanValue(dataEnrichEnvironmentVariableNameConstant),
		UploadToCodeScanning:  loader.booleanValue(uploadToCodeScanningEnvironmentVariableNameConstant),
		LogLevel:              loader.logLevelValue(logLevelEnvironmentVariableNameConstant),
		SarifReport:           loader.stringValue(sarifReportEnvironmentVariableNameConstant),
		ExportAsPDF:           loader.stringValue(exportAsPDFEnvironmentVariableNameConstant),
		GitHubToken:           loader.stringValue(tokenEnvironmentVariableNameConstant),
		GitHubRepository:      loader.stringValue(repositoryEnvironmentVariableNameConstant),
		GitHubOrganization:    ownerValue,
		GitHubRepositoryOwner: ownerValue,
		GitHubRef:             loader.stringValue(referenceEnvironmentVariableNameConstant),
		GitHubSHA:             loader.stringValue(commitSHAEnvironmentVariableNameConstant),
		LocalDevelopment:      loader.presenceValue(localDevelopmentEnvironmentVariableNameConstant),
	}
}

// booleanValue treats only the case-insensitive literal "true" as true.
func (loader *Loader) booleanValue(variableName string) bool {
	rawValue, variableSet := loader.lookup(variableName)
	if !variableSet {
		return false
	}
	return strings.EqualFold(rawValue, booleanTrueLiteralConstant)
}

// stringValue coerces empty and whitespace-only values to the absent empty string.
func (loader *Loader) stringValue(variableName string) string {
	rawValue, variableSet := loader.lookup(variableName)
	if !variableSet {
		return ""
	}
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return ""
	}
	return rawValue
}

// logLevelValue lowercases the configured level and falls back to info for unrecognized values.
func (loader *Loader) logLevelValue(variableName string) string {
	rawValue, variableSet := loader.lookup(variableName)
	if !variableSet {
		return defaultLogLevelConstant
	}
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if _, recognized := recognizedLogLevels[normalizedValue]; !recognized {
		return defaultLogLevelConstant
	}
	return normalizedValue
}

// presenceValue reports whether the variable is set to a non-empty value.
func (loader *Loader) presenceValue(variableName string) bool {
	rawValue, variableSet := loader.lookup(variableName)
	if !variableSet {
		return false
	}
	return len(strings.TrimSpace(rawValue)) > 0
}
