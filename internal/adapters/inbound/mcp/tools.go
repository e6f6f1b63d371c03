package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/loader"
	"github.com/abdidvp/patchgate/internal/bootstrap"
	"github.com/abdidvp/patchgate/internal/domain"
)

// registerTools registers all patchgate MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. patchgate_fix
	s.AddTool(
		mcplib.NewTool("patchgate_fix",
			mcplib.WithDescription("Generate, validate and apply patches for scanner findings. Defaults to a dry run that only reports what would change."),
			mcplib.WithString("issues",
				mcplib.Required(),
				mcplib.Description("Issues as a JSON array (or {\"issues\": [...]}) with type, severity, file_path, line, message and metadata"),
			),
			mcplib.WithBoolean("dry_run", mcplib.Description("Report patches without writing them (default: true)")),
			mcplib.WithBoolean("diff", mcplib.Description("Include unified diffs in the report (default: true)")),
		),
		handleFix(projectPath),
	)

	// 2. patchgate_validate_patch
	s.AddTool(
		mcplib.NewTool("patchgate_validate_patch",
			mcplib.WithDescription("Check a proposed full-file rewrite against the project's fix policy. Nothing is written."),
			mcplib.WithString("file", mcplib.Required(), mcplib.Description("Path of the file relative to the project root")),
			mcplib.WithString("content", mcplib.Required(), mcplib.Description("Complete proposed content of the file")),
			mcplib.WithNumber("confidence", mcplib.Description("Author's confidence between 0 and 1 (default: 0.5)")),
		),
		handleValidatePatch(projectPath),
	)

	// 3. patchgate_list_modules
	s.AddTool(
		mcplib.NewTool("patchgate_list_modules",
			mcplib.WithDescription("List the fix modules, the issue types each handles and whether the project enables it"),
		),
		handleListModules(projectPath),
	)
}

func newEngine(projectPath string) (*bootstrap.Engine, error) {
	// stdout carries the protocol; keep the engine quiet.
	return bootstrap.New(projectPath, bootstrap.Options{LogLevel: "error", LogOutput: io.Discard})
}

func handleFix(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("issues")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		issues, err := loader.ReadIssues(strings.NewReader(raw))
		if err != nil {
			return errorResult(fmt.Sprintf("reading issues: %v", err)), nil
		}

		eng, err := newEngine(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading project: %v", err)), nil
		}

		args := request.GetArguments()
		policy := eng.Config.Policy
		policy.DryRun = boolArg(args, "dry_run", true)
		result := eng.Service.Process(ctx, issues, policy)
		return jsonResult(result.Report(boolArg(args, "diff", true)))
	}
}

type validateResult struct {
	File       string             `json:"file"`
	Approved   bool               `json:"approved"`
	Confidence float64            `json:"confidence"`
	Reasons    []domain.Violation `json:"reasons,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	Diff       string             `json:"diff,omitempty"`
}

func handleValidatePatch(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		file, err := request.RequireString("file")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		content, err := request.RequireString("content")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		eng, err := newEngine(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading project: %v", err)), nil
		}

		p, verdict, err := eng.Service.ValidateProposal(file, content, confidenceArg(request.GetArguments()), eng.Config.Policy)
		if err != nil {
			return errorResult(fmt.Sprintf("validate failed: %v", err)), nil
		}
		return jsonResult(validateResult{
			File:       p.FilePath,
			Approved:   verdict.Approved,
			Confidence: verdict.Confidence,
			Reasons:    verdict.Reasons,
			Warnings:   verdict.Warnings,
			Diff:       p.UnifiedDiff(),
		})
	}
}

type moduleInfo struct {
	ID         string             `json:"id"`
	IssueTypes []domain.IssueType `json:"issue_types"`
	Confidence domain.Confidence  `json:"confidence"`
	Enabled    bool               `json:"enabled"`
}

func handleListModules(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		eng, err := newEngine(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading project: %v", err)), nil
		}

		var infos []moduleInfo
		for _, m := range bootstrap.AllModules() {
			infos = append(infos, moduleInfo{
				ID:         m.ID(),
				IssueTypes: m.IssueTypes(),
				Confidence: m.Confidence(),
				Enabled:    !eng.Config.IsModuleDisabled(m.ID()),
			})
		}
		return jsonResult(infos)
	}
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func confidenceArg(args map[string]any) float64 {
	if v, ok := args["confidence"].(float64); ok {
		return v
	}
	return domain.DefaultMinConfidence
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
