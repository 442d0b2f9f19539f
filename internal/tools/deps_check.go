package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

// DepsCheckTool handles the deps_check MCP tool.
type DepsCheckTool struct {
	hooks *lifecycle.Hooks
}

// NewDepsCheckTool creates a DepsCheckTool.
func NewDepsCheckTool(h *lifecycle.Hooks) *DepsCheckTool {
	return &DepsCheckTool{hooks: h}
}

// Definition returns the MCP tool definition for registration.
func (t *DepsCheckTool) Definition() mcp.Tool {
	return mcp.NewTool("deps_check",
		mcp.WithDescription(
			"Check package.json and requirements.txt against known critical and high "+
				"severity advisories. Results are cached for 24 hours; set `refresh` to rescan.",
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Ignore the cached result and rescan."),
		),
		projectDirParam(),
	)
}

// Handle processes the deps_check tool call.
func (t *DepsCheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := resolveProjectDir(t.hooks, req)
	res, err := t.hooks.Checker().Check(ctx, dir, req.GetBool("refresh", false))
	if err != nil {
		return nil, fmt.Errorf("checking dependencies: %w", err)
	}

	if len(res.Manifests) == 0 {
		return mcp.NewToolResultText("# Dependency Check\n\nNo package.json or requirements.txt found in " + dir + ".\n"), nil
	}

	source := "fresh scan"
	if res.Cached {
		source = "cached"
	}
	body := res.Warnings
	if body == "" {
		body = "No known vulnerable dependencies."
	}
	return mcp.NewToolResultText(fmt.Sprintf("# Dependency Check\n\n**Manifests:** %s\n**Result:** %s\n\n%s\n",
		strings.Join(res.Manifests, ", "), source, body)), nil
}
