package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	jsonExtensionConstant           = ".json"
	yamlExtensionConstant           = ".yaml"
	yamlShortExtensionConstant      = ".yml"
	readDirectoryErrorTemplate      = "unable to list specification candidates in %s: %w"
	summaryTemplateConstant         = "%d candidate files, %d API specifications"
	openAPIVersionFieldNameConstant = "openapi"
	swaggerVersionFieldNameConstant = "swagger"
)

// Candidate describes a single file considered for auditing.
type Candidate struct {
	Path             string
	APISpecification bool
	Version          string
}

// Summary aggregates the outcome of scanning a directory.
type Summary struct {
	Candidates []Candidate
}

// SpecificationCount reports how many candidates parsed as API specifications.
func (summary Summary) SpecificationCount() int {
	specificationCount := 0
	for _, candidate := range summary.Candidates {
		if candidate.APISpecification {
			specificationCount++
		}
	}
	return specificationCount
}

// String renders a one-line summary suitable for diagnostic logging.
func (summary Summary) String() string {
	return fmt.Sprintf(summaryTemplateConstant, len(summary.Candidates), summary.SpecificationCount())
}

type specificationVersionProbe struct {
	OpenAPI string `yaml:"openapi"`
	Swagger string `yaml:"swagger"`
}

// Scanner locates API specification files inside a directory.
type Scanner struct{}

// NewScanner constructs a Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan lists JSON and YAML files directly inside the directory and probes each for an
// OpenAPI or Swagger version marker. Unparseable files stay listed as non-specification
// candidates rather than failing the scan.
func (scanner *Scanner) Scan(directoryPath string) (Summary, error) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return Summary{}, fmt.Errorf(readDirectoryErrorTemplate, directoryPath, readError)
	}

	summary := Summary{}
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		if !recognizedExtension(directoryEntry.Name()) {
			continue
		}
		candidatePath := filepath.Join(directoryPath, directoryEntry.Name())
		summary.Candidates = append(summary.Candidates, scanner.probeCandidate(candidatePath))
	}

	return summary, nil
}

func (scanner *Scanner) probeCandidate(candidatePath string) Candidate {
	candidate := Candidate{Path: candidatePath}

	candidateBytes, readError := os.ReadFile(candidatePath)
	if readError != nil {
		return candidate
	}

	versionProbe := specificationVersionProbe{}
	if unmarshalError := yaml.Unmarshal(candidateBytes, &versionProbe); unmarshalError != nil {
		return candidate
	}

	switch {
	case len(strings.TrimSpace(versionProbe.OpenAPI)) > 0:
		candidate.APISpecification = true
		candidate.Version = versionProbe.OpenAPI
	case len(strings.TrimSpace(versionProbe.Swagger)) > 0:
		candidate.APISpecification = true
		candidate.Version = versionProbe.Swagger
	}

	return candidate
}

func recognizedExtension(fileName string) bool {
	extension := strings.ToLower(filepath.Ext(fileName))
	switch extension {
	case jsonExtensionConstant, yamlExtensionConstant, yamlShortExtensionConstant:
		return true
	}
	return false
}
