package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driving"
)

// RunIngestionInput is the input schema for the run_ingestion tool.
type RunIngestionInput struct {
	Connector string `json:"connector,omitempty" jsonschema:"connector to run (congress, openstates, legistar); empty runs all"`
}

// RunIngestionOutput is the output schema for the run_ingestion tool.
type RunIngestionOutput struct {
	Runs []RunOutput `json:"runs"`
}

// RunOutput summarises one ingestion run.
type RunOutput struct {
	RunID      string          `json:"run_id"`
	Connector  string          `json:"connector"`
	Status     string          `json:"status"`
	Stats      domain.RunStats `json:"stats"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// IngestRollCallsInput is the input schema for the ingest_roll_calls tool.
type IngestRollCallsInput struct {
	Chamber      string `json:"chamber" jsonschema:"house or senate"`
	Congress     int    `json:"congress" jsonschema:"congress number, e.g. 119"`
	Session      int    `json:"session,omitempty" jsonschema:"session number (default 1)"`
	Start        int    `json:"start,omitempty" jsonschema:"first roll-call number (default 1)"`
	MaxDocuments int    `json:"max_documents,omitempty" jsonschema:"maximum documents to request (default unlimited)"`
}

// ComputeAlignmentInput is the input schema for the compute_alignment tool.
type ComputeAlignmentInput struct {
	MeasureID string `json:"measure_id" jsonschema:"measure to score every voter's alignment for"`
}

// ComputeAlignmentOutput is the output schema for the compute_alignment tool.
type ComputeAlignmentOutput struct {
	MeasureID string `json:"measure_id"`
	Results   int    `json:"results"`
}

// UserAlignmentInput is the input schema for the user_alignment tool.
type UserAlignmentInput struct {
	UserID string `json:"user_id" jsonschema:"user whose alignment to summarise"`
}

// registerTools registers the tools whose services are available.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_ingestion",
		Description: "Ingest measures from one legislative source, or all of them",
	}, s.handleRunIngestion)
	s.tools = append(s.tools, "run_ingestion")

	if s.ports.RollCall != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_roll_calls",
			Description: "Ingest House or Senate roll-call votes for a congress and session",
		}, s.handleIngestRollCalls)
		s.tools = append(s.tools, "ingest_roll_calls")
	}

	if s.ports.Alignment != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "compute_alignment",
			Description: "Recompute user/official match results for a measure",
		}, s.handleComputeAlignment)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "user_alignment",
			Description: "Summarise how a user's positions align with their officials",
		}, s.handleUserAlignment)
		s.tools = append(s.tools, "compute_alignment", "user_alignment")
	}
}

// handleRunIngestion handles the run_ingestion tool invocation.
func (s *Server) handleRunIngestion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunIngestionInput,
) (*mcp.CallToolResult, RunIngestionOutput, error) {
	if input.Connector != "" {
		run, err := s.ports.Ingestion.Run(ctx, input.Connector)
		if run == nil {
			return nil, RunIngestionOutput{}, err
		}
		// A failed run is still reported; the error is in the run record.
		return nil, RunIngestionOutput{Runs: []RunOutput{runOutput(*run)}}, nil
	}

	runs, err := s.ports.Ingestion.RunAll(ctx)
	if len(runs) == 0 && err != nil {
		return nil, RunIngestionOutput{}, err
	}
	output := RunIngestionOutput{Runs: make([]RunOutput, len(runs))}
	for i := range runs {
		output.Runs[i] = runOutput(runs[i])
	}
	return nil, output, nil
}

// handleIngestRollCalls handles the ingest_roll_calls tool invocation.
func (s *Server) handleIngestRollCalls(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestRollCallsInput,
) (*mcp.CallToolResult, domain.RollCallStats, error) {
	if s.ports.RollCall == nil {
		return nil, domain.RollCallStats{}, ErrNotConfigured
	}

	stats, err := s.ports.RollCall.IngestChamber(ctx, domain.RollCallChamber(input.Chamber), driving.RollCallOptions{
		Congress:     input.Congress,
		Session:      input.Session,
		Start:        input.Start,
		MaxDocuments: input.MaxDocuments,
	})
	if err != nil {
		return nil, domain.RollCallStats{}, fmt.Errorf("ingest %s roll calls: %w", input.Chamber, err)
	}
	return nil, stats, nil
}

// handleComputeAlignment handles the compute_alignment tool invocation.
func (s *Server) handleComputeAlignment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComputeAlignmentInput,
) (*mcp.CallToolResult, ComputeAlignmentOutput, error) {
	if s.ports.Alignment == nil {
		return nil, ComputeAlignmentOutput{}, ErrNotConfigured
	}

	n, err := s.ports.Alignment.ComputeForMeasure(ctx, input.MeasureID)
	if err != nil {
		return nil, ComputeAlignmentOutput{}, err
	}
	return nil, ComputeAlignmentOutput{MeasureID: input.MeasureID, Results: n}, nil
}

// handleUserAlignment handles the user_alignment tool invocation.
func (s *Server) handleUserAlignment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserAlignmentInput,
) (*mcp.CallToolResult, domain.AlignmentSummary, error) {
	if s.ports.Alignment == nil {
		return nil, domain.AlignmentSummary{}, ErrNotConfigured
	}

	summary, err := s.ports.Alignment.UserAlignment(ctx, input.UserID)
	if err != nil {
		return nil, domain.AlignmentSummary{}, err
	}
	return nil, *summary, nil
}

func runOutput(run domain.IngestionRun) RunOutput {
	return RunOutput{
		RunID:      run.ID,
		Connector:  run.Connector,
		Status:     string(run.Status),
		Stats:      run.Stats,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
