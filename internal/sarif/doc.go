// Package sarif reads SARIF documents produced by the audit conversion step
// and evaluates the security quality gate over their results.
package sarif
