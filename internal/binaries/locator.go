package binaries

import (
	"errors"
	"fmt"
	"os"
)

const (
	windowsOperatingSystemIdentifierConstant  = "windows"
	darwinOperatingSystemIdentifierConstant   = "darwin"
	linuxOperatingSystemIdentifierConstant    = "linux"
	windowsAuditBinaryPathConstant            = "/usr/local/bin/42c-ast-windows-amd64.exe"
	darwinAuditBinaryPathConstant             = "/usr/local/bin/42c-ast-darwin-amd64"
	linuxAuditBinaryPathConstant              = "/usr/local/bin/42c-ast-linux-amd64"
	unsupportedOperatingSystemMessageConstant = "unable to detect a supported operating system"
	binaryNotFoundMessageTemplateConstant     = "unable to find audit binary at %s"
)

// ErrUnsupportedOperatingSystem indicates the host operating system has no known audit binary.
var ErrUnsupportedOperatingSystem = errors.New(unsupportedOperatingSystemMessageConstant)

// BinaryNotFoundError reports that the expected audit binary is absent from disk.
type BinaryNotFoundError struct {
	Path string
}

// Error describes the missing binary path.
func (notFoundError BinaryNotFoundError) Error() string {
	return fmt.Sprintf(binaryNotFoundMessageTemplateConstant, notFoundError.Path)
}

var operatingSystemBinaryPaths = map[string]string{
	windowsOperatingSystemIdentifierConstant: windowsAuditBinaryPathConstant,
	darwinOperatingSystemIdentifierConstant:  darwinAuditBinaryPathConstant,
	linuxOperatingSystemIdentifierConstant:   linuxAuditBinaryPathConstant,
}

// FileStatFunction abstracts filesystem inspection for deterministic testing.
type FileStatFunction func(path string) (os.FileInfo, error)

// Locator resolves the audit binary path for a host operating system.
type Locator struct {
	statFunction FileStatFunction
}

// NewLocator constructs a Locator using the provided stat function, defaulting to os.Stat.
func NewLocator(statFunction FileStatFunction) *Locator {
	if statFunction == nil {
		statFunction = os.Stat
	}
	return &Locator{statFunction: statFunction}
}

// Resolve returns the absolute audit binary path for the operating system and verifies it is a regular file.
// Local development always resolves to the darwin binary regardless of the host operating system.
func (locator *Locator) Resolve(operatingSystem string, localDevelopment bool) (string, error) {
	binaryPath, pathError := locator.expectedPath(operatingSystem, localDevelopment)
	if pathError != nil {
		return "", pathError
	}

	fileInformation, statError := locator.statFunction(binaryPath)
	if statError != nil || !fileInformation.Mode().IsRegular() {
		return "", BinaryNotFoundError{Path: binaryPath}
	}

	return binaryPath, nil
}

func (locator *Locator) expectedPath(operatingSystem string, localDevelopment bool) (string, error) {
	if localDevelopment {
		return darwinAuditBinaryPathConstant, nil
	}

	binaryPath, operatingSystemSupported := operatingSystemBinaryPaths[operatingSystem]
	if !operatingSystemSupported {
		return "", ErrUnsupportedOperatingSystem
	}

	return binaryPath, nil
}
