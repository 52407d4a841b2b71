// Package utils hosts shared plumbing for the apisec CLI: viper-backed
// configuration loading, zap logger construction, command context helpers,
// and output writers.
package utils
