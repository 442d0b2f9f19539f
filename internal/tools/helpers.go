// Package tools implements the MCP tool handlers that expose the hook
// runner for inspection and manual runs.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle compatible with mcp-go's CallToolRequest
// signature. One file per tool.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

// projectDirParam is shared by every tool that acts on a project.
func projectDirParam() mcp.ToolOption {
	return mcp.WithString("project_dir",
		mcp.Description("Project directory. Defaults to CLAUDE_PROJECT_DIR, then the server's working directory."),
	)
}

// resolveProjectDir applies the same fallback chain the hooks use.
func resolveProjectDir(h *lifecycle.Hooks, req mcp.CallToolRequest) string {
	return h.ProjectDir(&hooks.Input{ProjectDir: req.GetString("project_dir", "")})
}

// jsonResult renders v as an indented JSON code block.
func jsonResult(title string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("# %s\n\n```json\n%s\n```\n", title, data)), nil
}
