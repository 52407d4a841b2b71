package sarif

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	documentReadErrorTemplateConstant   = "unable to read SARIF document %s: %w"
	documentDecodeErrorTemplateConstant = "unable to decode SARIF document %s: %w"
)

// Document models the subset of a SARIF log file the gate inspects.
type Document struct {
	Runs []Run `json:"runs"`
}

// Run holds the results reported by one analysis run.
type Run struct {
	Results []Result `json:"results"`
}

// Result captures one reported finding.
type Result struct {
	RuleID  string         `json:"ruleId,omitempty"`
	Level   string         `json:"level,omitempty"`
	Message *ResultMessage `json:"message,omitempty"`
}

// ResultMessage carries the finding's rendered text.
type ResultMessage struct {
	Text string `json:"text,omitempty"`
}

// LoadDocument parses the SARIF file at the provided path.
func LoadDocument(documentPath string) (Document, error) {
	documentBytes, readError := os.ReadFile(documentPath)
	if readError != nil {
		return Document{}, fmt.Errorf(documentReadErrorTemplateConstant, documentPath, readError)
	}

	var document Document
	if decodeError := json.Unmarshal(documentBytes, &document); decodeError != nil {
		return Document{}, fmt.Errorf(documentDecodeErrorTemplateConstant, documentPath, decodeError)
	}

	return document, nil
}
