// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions apisec uses to run
// the 42Crunch controller CLI in a testable manner.
package execshell
