package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewPatchgateMCPServer creates an MCP server with all patchgate tools and
// resources registered. The projectPath is the root directory patches are
// applied to.
func NewPatchgateMCPServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"patchgate",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
