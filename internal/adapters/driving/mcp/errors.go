// Package mcp provides an MCP (Model Context Protocol) server adapter for
// villagevote. It lets AI assistants trigger ingestion and read alignment
// scores.
package mcp

import "errors"

var (
	// ErrMissingIngestionService is returned when the ingestion orchestrator is not provided.
	ErrMissingIngestionService = errors.New("mcp: ingestion service is required")

	// ErrNotConfigured is returned by tools whose service was not provided.
	ErrNotConfigured = errors.New("mcp: service not configured")
)
