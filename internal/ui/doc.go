// Package ui renders human-readable command progress and the high-visibility
// failure banners apisec prints before terminating on fatal conditions.
package ui
