package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/services"
)

type healthResult struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	StoreBackend   string   `json:"store_backend"`
	StoreDialect   string   `json:"store_dialect,omitempty"`
	StoreAvailable bool     `json:"store_available"`
	AIProvider     string   `json:"ai_provider"`
	AIModels       []string `json:"ai_models"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the version plus the active store and AI provider.
func RegisterHealthTool(s *server.MCPServer, version string, status func() services.Status) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and active backends"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st := status()
		result, err := json.Marshal(healthResult{
			Status:         "ok",
			Version:        version,
			StoreBackend:   string(st.StoreBackend),
			StoreDialect:   st.StoreDialect,
			StoreAvailable: st.StoreAvailable,
			AIProvider:     st.AIProvider,
			AIModels:       st.AIModels,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
