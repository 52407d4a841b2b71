// Package binaries resolves the on-disk location of the 42Crunch audit binary
// for the host operating system and verifies it exists before any audit runs.
package binaries
