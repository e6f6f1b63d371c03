package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/config"
)

const policyURI = "patchgate://policy"

// registerResources registers all patchgate MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	// 1. patchgate://policy - effective fix policy
	s.AddResource(
		mcplib.NewResource(
			policyURI,
			"Fix Policy",
			mcplib.WithResourceDescription("Effective safety limits and module switches for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handlePolicyResource(projectPath),
	)
}

func handlePolicyResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		absPath, err := filepath.Abs(projectPath)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		cfg, err := config.New().Load(absPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling policy: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      policyURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
