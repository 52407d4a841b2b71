// Package audit orchestrates external security audits of API specifications and the
// downstream SARIF conversion, upload, enforcement, and merge steps.
package audit
