package codescanning

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	// DefaultAPIBaseURL is the GitHub REST API endpoint used when no override is configured.
	DefaultAPIBaseURL = "https://api.github.com"

	uploadEndpointTemplateConstant     = "%s/repos/%s/code-scanning/sarifs"
	authorizationHeaderNameConstant    = "Authorization"
	authorizationHeaderTemplate        = "Bearer %s"
	acceptHeaderNameConstant           = "Accept"
	acceptHeaderValueConstant          = "application/vnd.github+json"
	apiVersionHeaderNameConstant       = "X-GitHub-Api-Version"
	apiVersionHeaderValueConstant      = "2022-11-28"
	contentTypeHeaderNameConstant      = "Content-Type"
	contentTypeHeaderValueConstant     = "application/json"
	toolNameConstant                   = "42Crunch REST API Static Security Testing"
	checkoutURISchemeConstant          = "file://"
	repositorySeparatorConstant        = "/"
	readReportErrorTemplateConstant    = "unable to read SARIF report %s: %v"
	compressReportErrorTemplate        = "unable to compress SARIF report %s: %w"
	buildRequestErrorTemplateConstant  = "unable to build code scanning upload request: %w"
	performRequestErrorTemplate        = "unable to reach the code scanning API: %w"
	uploadFailedErrorTemplateConstant  = "code scanning upload failed with status %d: %s"
	invalidRepositoryTemplateConstant  = "repository %q is not in owner/name form"
	tokenNotConfiguredMessageConstant  = "github token is not configured"
	workingDirectoryErrorTemplateConst = "unable to determine working directory: %w"
)

// ErrTokenNotConfigured indicates the upload was requested without a GitHub token.
var ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)

// InvalidRepositoryError indicates the repository reference is not owner/name shaped.
type InvalidRepositoryError struct {
	Repository string
}

// Error describes the malformed repository reference.
func (invalidRepositoryError InvalidRepositoryError) Error() string {
	return fmt.Sprintf(invalidRepositoryTemplateConstant, invalidRepositoryError.Repository)
}

// ReportNotFoundError indicates the SARIF report could not be read from disk.
type ReportNotFoundError struct {
	Path  string
	Cause error
}

// Error describes the unreadable SARIF report.
func (reportNotFoundError ReportNotFoundError) Error() string {
	return fmt.Sprintf(readReportErrorTemplateConstant, reportNotFoundError.Path, reportNotFoundError.Cause)
}

// Unwrap exposes the underlying read failure.
func (reportNotFoundError ReportNotFoundError) Unwrap() error {
	return reportNotFoundError.Cause
}

// UploadFailedError indicates the code scanning API rejected the upload.
type UploadFailedError struct {
	StatusCode   int
	ResponseBody string
}

// Error describes the rejected upload.
func (uploadFailedError UploadFailedError) Error() string {
	return fmt.Sprintf(uploadFailedErrorTemplateConstant, uploadFailedError.StatusCode, uploadFailedError.ResponseBody)
}

// UploadRequest captures the inputs required to publish a SARIF report.
type UploadRequest struct {
	ReportPath string
	Repository string
	CommitSHA  string
	Reference  string
	Token      string
}

type uploadPayload struct {
	CommitSHA   string `json:"commit_sha"`
	Reference   string `json:"ref"`
	Sarif       string `json:"sarif"`
	ToolName    string `json:"tool_name"`
	CheckoutURI string `json:"checkout_uri"`
}

// Uploader publishes SARIF reports to the GitHub code scanning API.
type Uploader struct {
	httpClient *http.Client
	apiBaseURL string
}

// NewUploader constructs an Uploader with optional HTTP client and base URL overrides.
func NewUploader(httpClient *http.Client, apiBaseURL string) *Uploader {
	resolvedClient := httpClient
	if resolvedClient == nil {
		resolvedClient = http.DefaultClient
	}
	resolvedBaseURL := strings.TrimSpace(apiBaseURL)
	if len(resolvedBaseURL) == 0 {
		resolvedBaseURL = DefaultAPIBaseURL
	}
	return &Uploader{httpClient: resolvedClient, apiBaseURL: resolvedBaseURL}
}

// Upload compresses the SARIF report and publishes it to the code scanning API.
func (uploader *Uploader) Upload(executionContext context.Context, uploadRequest UploadRequest) error {
	if len(strings.TrimSpace(uploadRequest.Token)) == 0 {
		return ErrTokenNotConfigured
	}
	if !strings.Contains(uploadRequest.Repository, repositorySeparatorConstant) {
		return InvalidRepositoryError{Repository: uploadRequest.Repository}
	}

	reportBytes, readError := os.ReadFile(uploadRequest.ReportPath)
	if readError != nil {
		return ReportNotFoundError{Path: uploadRequest.ReportPath, Cause: readError}
	}

	encodedReport, encodeError := compressAndEncode(reportBytes)
	if encodeError != nil {
		return fmt.Errorf(compressReportErrorTemplate, uploadRequest.ReportPath, encodeError)
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorTemplateConst, workingDirectoryError)
	}

	payload := uploadPayload{
		CommitSHA:   uploadRequest.CommitSHA,
		Reference:   uploadRequest.Reference,
		Sarif:       encodedReport,
		ToolName:    toolNameConstant,
		CheckoutURI: checkoutURISchemeConstant + workingDirectory,
	}
	payloadBytes, marshalError := json.Marshal(payload)
	if marshalError != nil {
		return fmt.Errorf(buildRequestErrorTemplateConstant, marshalError)
	}

	endpointURL := fmt.Sprintf(uploadEndpointTemplateConstant, uploader.apiBaseURL, uploadRequest.Repository)
	httpRequest, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, endpointURL, bytes.NewReader(payloadBytes))
	if requestError != nil {
		return fmt.Errorf(buildRequestErrorTemplateConstant, requestError)
	}
	httpRequest.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplate, uploadRequest.Token))
	httpRequest.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	httpRequest.Header.Set(apiVersionHeaderNameConstant, apiVersionHeaderValueConstant)
	httpRequest.Header.Set(contentTypeHeaderNameConstant, contentTypeHeaderValueConstant)

	httpResponse, performError := uploader.httpClient.Do(httpRequest)
	if performError != nil {
		return fmt.Errorf(performRequestErrorTemplate, performError)
	}
	defer func() {
		_ = httpResponse.Body.Close()
	}()

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(httpResponse.Body)
		return UploadFailedError{StatusCode: httpResponse.StatusCode, ResponseBody: string(responseBody)}
	}

	return nil
}

func compressAndEncode(reportBytes []byte) (string, error) {
	var compressedBuffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressedBuffer)
	if _, writeError := gzipWriter.Write(reportBytes); writeError != nil {
		return "", writeError
	}
	if closeError := gzipWriter.Close(); closeError != nil {
		return "", closeError
	}
	return base64.StdEncoding.EncodeToString(compressedBuffer.Bytes()), nil
}
