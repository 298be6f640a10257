package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for villagevote resources.
	uriScheme = "villagevote://"

	// recentRuns bounds the runs resource.
	recentRuns = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "connectors",
		Name:        "connectors",
		Description: "Registered ingestion connectors and their live status",
		MIMEType:    "application/json",
	}, s.handleConnectorsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent ingestion runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)
}

// handleConnectorsResource lists connectors with their current run state.
func (s *Server) handleConnectorsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type connectorInfo struct {
		Name    string `json:"name"`
		Running bool   `json:"running"`
		RunID   string `json:"run_id,omitempty"`
	}

	names := s.ports.Ingestion.Connectors()
	infos := make([]connectorInfo, 0, len(names))
	for _, name := range names {
		info := connectorInfo{Name: name}
		status, err := s.ports.Ingestion.Status(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", name, err)
		}
		if status != nil {
			info.Running = status.Running
			info.RunID = status.RunID
		}
		infos = append(infos, info)
	}
	return jsonResource(req.Params.URI, infos)
}

// handleRunsResource returns recent ingestion runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Ingestion.Runs(ctx, "", recentRuns)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]RunOutput, len(runs))
	for i := range runs {
		out[i] = runOutput(runs[i])
	}
	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
