// Package codescanning uploads SARIF reports to the GitHub code scanning API.
package codescanning
