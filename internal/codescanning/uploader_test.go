package codescanning_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/apisec/internal/codescanning"
)

const (
	testReportFileNameConstant            = "report.sarif"
	testReportContentConstant             = `{"runs":[{"results":[]}]}`
	testRepositoryConstant                = "acme/payments-api"
	testInvalidRepositoryConstant         = "payments-api"
	testCommitSHAConstant                 = "a1b2c3d4"
	testReferenceConstant                 = "refs/heads/main"
	testTokenConstant                     = "ghp_testtoken"
	testExpectedAuthorizationConstant     = "Bearer ghp_testtoken"
	testExpectedAcceptConstant            = "application/vnd.github+json"
	testExpectedAPIVersionConstant        = "2022-11-28"
	testExpectedUploadPathConstant        = "/repos/acme/payments-api/code-scanning/sarifs"
	testExpectedToolNameConstant          = "42Crunch REST API Static Security Testing"
	testCheckoutURIPrefixConstant         = "file://"
	testMissingTokenCaseNameConstant      = "missing_token"
	testInvalidRepositoryCaseNameConstant = "invalid_repository"
	testMissingReportCaseNameConstant     = "missing_report"
	testRejectedUploadCaseNameConstant    = "rejected_upload"
	testRejectionBodyConstant             = `{"message":"validation failed"}`
)

type recordedUpload struct {
	CommitSHA   string `json:"commit_sha"`
	Reference   string `json:"ref"`
	Sarif       string `json:"sarif"`
	ToolName    string `json:"tool_name"`
	CheckoutURI string `json:"checkout_uri"`
}

func writeReportFile(testInstance *testing.T) string {
	testInstance.Helper()

	reportPath := filepath.Join(testInstance.TempDir(), testReportFileNameConstant)
	require.NoError(testInstance, os.WriteFile(reportPath, []byte(testReportContentConstant), 0o644))
	return reportPath
}

func TestUploaderSendsCompressedReport(testInstance *testing.T) {
	requestCount := 0
	var recordedPayload recordedUpload
	var recordedRequest *http.Request

	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		recordedRequest = request.Clone(context.Background())

		requestBody, readError := io.ReadAll(request.Body)
		require.NoError(testInstance, readError)
		require.NoError(testInstance, json.Unmarshal(requestBody, &recordedPayload))

		responseWriter.WriteHeader(http.StatusAccepted)
	}))
	defer testServer.Close()

	uploader := codescanning.NewUploader(testServer.Client(), testServer.URL)

	uploadError := uploader.Upload(context.Background(), codescanning.UploadRequest{
		ReportPath: writeReportFile(testInstance),
		Repository: testRepositoryConstant,
		CommitSHA:  testCommitSHAConstant,
		Reference:  testReferenceConstant,
		Token:      testTokenConstant,
	})

	require.NoError(testInstance, uploadError)
	require.Equal(testInstance, 1, requestCount)
	require.Equal(testInstance, http.MethodPost, recordedRequest.Method)
	require.Equal(testInstance, testExpectedUploadPathConstant, recordedRequest.URL.Path)
	require.Equal(testInstance, testExpectedAuthorizationConstant, recordedRequest.Header.Get("Authorization"))
	require.Equal(testInstance, testExpectedAcceptConstant, recordedRequest.Header.Get("Accept"))
	require.Equal(testInstance, testExpectedAPIVersionConstant, recordedRequest.Header.Get("X-GitHub-Api-Version"))

	require.Equal(testInstance, testCommitSHAConstant, recordedPayload.CommitSHA)
	require.Equal(testInstance, testReferenceConstant, recordedPayload.Reference)
	require.Equal(testInstance, testExpectedToolNameConstant, recordedPayload.ToolName)
	require.True(testInstance, len(recordedPayload.CheckoutURI) > len(testCheckoutURIPrefixConstant))
	require.Equal(testInstance, testCheckoutURIPrefixConstant, recordedPayload.CheckoutURI[:len(testCheckoutURIPrefixConstant)])

	compressedReport, decodeError := base64.StdEncoding.DecodeString(recordedPayload.Sarif)
	require.NoError(testInstance, decodeError)
	gzipReader, gzipError := gzip.NewReader(bytes.NewReader(compressedReport))
	require.NoError(testInstance, gzipError)
	decompressedReport, decompressError := io.ReadAll(gzipReader)
	require.NoError(testInstance, decompressError)
	require.Equal(testInstance, testReportContentConstant, string(decompressedReport))
}

func TestUploaderValidationFailuresSkipNetwork(testInstance *testing.T) {
	testCases := []struct {
		name          string
		buildRequest  func(testInstance *testing.T) codescanning.UploadRequest
		expectedError any
	}{
		{
			name: testMissingTokenCaseNameConstant,
			buildRequest: func(testInstance *testing.T) codescanning.UploadRequest {
				return codescanning.UploadRequest{
					ReportPath: writeReportFile(testInstance),
					Repository: testRepositoryConstant,
				}
			},
			expectedError: codescanning.ErrTokenNotConfigured,
		},
		{
			name: testInvalidRepositoryCaseNameConstant,
			buildRequest: func(testInstance *testing.T) codescanning.UploadRequest {
				return codescanning.UploadRequest{
					ReportPath: writeReportFile(testInstance),
					Repository: testInvalidRepositoryConstant,
					Token:      testTokenConstant,
				}
			},
			expectedError: codescanning.InvalidRepositoryError{},
		},
		{
			name: testMissingReportCaseNameConstant,
			buildRequest: func(testInstance *testing.T) codescanning.UploadRequest {
				return codescanning.UploadRequest{
					ReportPath: filepath.Join(testInstance.TempDir(), testReportFileNameConstant),
					Repository: testRepositoryConstant,
					Token:      testTokenConstant,
				}
			},
			expectedError: codescanning.ReportNotFoundError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			requestCount := 0
			testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				requestCount++
				responseWriter.WriteHeader(http.StatusAccepted)
			}))
			defer testServer.Close()

			uploader := codescanning.NewUploader(testServer.Client(), testServer.URL)

			uploadError := uploader.Upload(context.Background(), testCase.buildRequest(testInstance))

			require.Error(testInstance, uploadError)
			require.Zero(testInstance, requestCount)

			switch expectedError := testCase.expectedError.(type) {
			case error:
				switch expectedError.(type) {
				case codescanning.InvalidRepositoryError:
					invalidRepository := codescanning.InvalidRepositoryError{}
					require.ErrorAs(testInstance, uploadError, &invalidRepository)
				case codescanning.ReportNotFoundError:
					reportNotFound := codescanning.ReportNotFoundError{}
					require.ErrorAs(testInstance, uploadError, &reportNotFound)
				default:
					require.ErrorIs(testInstance, uploadError, expectedError)
				}
			}
		})
	}
}

func TestUploaderSurfacesRejectedUpload(testInstance *testing.T) {
	testInstance.Run(testRejectedUploadCaseNameConstant, func(testInstance *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			responseWriter.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = responseWriter.Write([]byte(testRejectionBodyConstant))
		}))
		defer testServer.Close()

		uploader := codescanning.NewUploader(testServer.Client(), testServer.URL)

		uploadError := uploader.Upload(context.Background(), codescanning.UploadRequest{
			ReportPath: writeReportFile(testInstance),
			Repository: testRepositoryConstant,
			CommitSHA:  testCommitSHAConstant,
			Reference:  testReferenceConstant,
			Token:      testTokenConstant,
		})

		require.Error(testInstance, uploadError)
		uploadFailure := codescanning.UploadFailedError{}
		require.ErrorAs(testInstance, uploadError, &uploadFailure)
		require.Equal(testInstance, http.StatusUnprocessableEntity, uploadFailure.StatusCode)
		require.Equal(testInstance, testRejectionBodyConstant, uploadFailure.ResponseBody)
	})
}
