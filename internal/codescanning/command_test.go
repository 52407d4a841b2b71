package codescanning_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/apisec/internal/codescanning"
	"github.com/temirov/apisec/internal/environment"
)

const (
	testRepositoryVariableNameConstant = "GITHUB_REPOSITORY"
	testCommitSHAVariableNameConstant  = "GITHUB_SHA"
	testReferenceVariableNameConstant  = "GITHUB_REF"
	testTokenVariableNameConstant      = "INPUT_TOKEN"
	testUploadSucceededMessagePart     = "uploaded SARIF report to code scanning"
	testUploadFailureBannerPart        = "Upload to code scanning failed"
	testReportPathRequiredMessagePart  = "SARIF report path required"
)

func uploadEnvironmentLoaderProvider(values map[string]string) codescanning.EnvironmentLoaderProvider {
	return func() *environment.Loader {
		return environment.NewLoader(func(name string) (string, bool) {
			value, present := values[name]
			return value, present
		})
	}
}

func observedUploadLogger() (codescanning.LoggerProvider, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	logger := zap.New(observerCore)
	return func() *zap.Logger { return logger }, observedLogs
}

func TestUploadCommandPublishesReport(testInstance *testing.T) {
	requestCount := 0
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		responseWriter.WriteHeader(http.StatusAccepted)
	}))
	defer testServer.Close()

	loggerProvider, observedLogs := observedUploadLogger()
	commandBuilder := &codescanning.UploadCommandBuilder{
		LoggerProvider: loggerProvider,
		EnvironmentLoaderProvider: uploadEnvironmentLoaderProvider(map[string]string{
			testRepositoryVariableNameConstant: testRepositoryConstant,
			testCommitSHAVariableNameConstant:  testCommitSHAConstant,
			testReferenceVariableNameConstant:  testReferenceConstant,
			testTokenVariableNameConstant:      testTokenConstant,
		}),
		Uploader: codescanning.NewUploader(testServer.Client(), testServer.URL),
	}
	uploadCommand, buildError := commandBuilder.Build()
	require.NoError(testInstance, buildError)

	uploadCommand.SetArgs([]string{writeReportFile(testInstance)})
	require.NoError(testInstance, uploadCommand.Execute())

	require.Equal(testInstance, 1, requestCount)
	informationEntries := observedLogs.FilterLevelExact(zap.InfoLevel).All()
	require.NotEmpty(testInstance, informationEntries)
	require.Contains(testInstance, informationEntries[0].Message, testUploadSucceededMessagePart)
}

func TestUploadCommandReportsMissingToken(testInstance *testing.T) {
	loggerProvider, observedLogs := observedUploadLogger()
	commandBuilder := &codescanning.UploadCommandBuilder{
		LoggerProvider: loggerProvider,
		EnvironmentLoaderProvider: uploadEnvironmentLoaderProvider(map[string]string{
			testRepositoryVariableNameConstant: testRepositoryConstant,
		}),
		Uploader: codescanning.NewUploader(nil, ""),
	}
	uploadCommand, buildError := commandBuilder.Build()
	require.NoError(testInstance, buildError)

	uploadCommand.SetArgs([]string{writeReportFile(testInstance)})
	executionError := uploadCommand.Execute()

	require.ErrorIs(testInstance, executionError, codescanning.ErrTokenNotConfigured)
	errorEntries := observedLogs.FilterLevelExact(zap.ErrorLevel).All()
	require.NotEmpty(testInstance, errorEntries)
	require.Contains(testInstance, errorEntries[0].Message, testUploadFailureBannerPart)
}

func TestUploadCommandRequiresReportArgument(testInstance *testing.T) {
	commandBuilder := &codescanning.UploadCommandBuilder{}
	uploadCommand, buildError := commandBuilder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	uploadCommand.SetOut(outputBuffer)
	uploadCommand.SetErr(outputBuffer)
	uploadCommand.SetArgs([]string{})

	executionError := uploadCommand.Execute()
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), testReportPathRequiredMessagePart)
}
