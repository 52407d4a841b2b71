package sarif

import "fmt"

const (
	// NoIssuesSentinelCount is reported when the document contains no findings.
	NoIssuesSentinelCount = -1

	gateViolationMessageTemplateConstant = "security issues found: %d"
)

// GateEvaluation reports whether a SARIF document contains findings.
type GateEvaluation struct {
	IssuesFound bool
	IssueCount  int
}

// GateViolationError signals that gate enforcement found security issues.
type GateViolationError struct {
	IssueCount int
}

// Error describes the gate violation.
func (violationError GateViolationError) Error() string {
	return fmt.Sprintf(gateViolationMessageTemplateConstant, violationError.IssueCount)
}

// EvaluateDocument inspects the first run's results. Structural anomalies such
// as a missing runs list are treated the same as an empty result set: the
// upstream converter owns document validity, the gate only counts findings.
func EvaluateDocument(document Document) GateEvaluation {
	if len(document.Runs) == 0 {
		return GateEvaluation{IssuesFound: false, IssueCount: NoIssuesSentinelCount}
	}

	issueCount := len(document.Runs[0].Results)
	if issueCount == 0 {
		return GateEvaluation{IssuesFound: false, IssueCount: NoIssuesSentinelCount}
	}

	return GateEvaluation{IssuesFound: true, IssueCount: issueCount}
}

// EvaluateReport loads the SARIF file at the provided path and evaluates the gate.
func EvaluateReport(reportPath string) (GateEvaluation, error) {
	document, loadError := LoadDocument(reportPath)
	if loadError != nil {
		return GateEvaluation{}, loadError
	}

	return EvaluateDocument(document), nil
}
