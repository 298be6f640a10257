package mcp

import (
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingestion runs measure ingestion.
	Ingestion driving.IngestionOrchestrator

	// RollCall ingests roll-call votes.
	RollCall driving.RollCallIngestor

	// Alignment scores users against their officials.
	Alignment driving.AlignmentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	// RollCall and Alignment are optional
	return nil
}
