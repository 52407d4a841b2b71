// Package discovery inspects candidate API specification files ahead of an audit run.
package discovery
