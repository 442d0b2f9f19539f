package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/HendryAvila/hoofy-hooks/internal/patterns"
	"github.com/mark3labs/mcp-go/mcp"
)

// PatternsSyncTool handles the patterns_sync MCP tool.
type PatternsSyncTool struct {
	hooks *lifecycle.Hooks
}

// NewPatternsSyncTool creates a PatternsSyncTool.
func NewPatternsSyncTool(h *lifecycle.Hooks) *PatternsSyncTool {
	return &PatternsSyncTool{hooks: h}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternsSyncTool) Definition() mcp.Tool {
	return mcp.NewTool("patterns_sync",
		mcp.WithDescription(
			"Merge learned patterns between the project store and the global store. "+
				"`pull` copies global patterns into the project, `push` copies project patterns "+
				"into the global store. Records are only ever appended, keyed by their text.",
		),
		mcp.WithString("direction",
			mcp.Required(),
			mcp.Description("pull or push"),
			mcp.Enum(string(patterns.DirectionPull), string(patterns.DirectionPush)),
		),
		projectDirParam(),
	)
}

// Handle processes the patterns_sync tool call.
func (t *PatternsSyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	engine := t.hooks.Engine(resolveProjectDir(t.hooks, req))

	var report patterns.Report
	switch patterns.Direction(direction) {
	case patterns.DirectionPull:
		report, err = engine.Pull(ctx)
	case patterns.DirectionPush:
		report, err = engine.Push(ctx)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("direction must be pull or push, got %q", direction)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Sync failed: %v", err)), nil
	}
	return jsonResult("Pattern Sync", syncResult{
		Report:  report,
		Project: storeSummary(engine, engine.ProjectPath()),
		Global:  storeSummary(engine, engine.GlobalPath()),
	})
}

type storeStatus struct {
	Path     string `json:"path"`
	Readable bool   `json:"readable"`
	Records  int    `json:"records"`
}

type syncResult struct {
	Report  patterns.Report `json:"report"`
	Project storeStatus     `json:"project_store"`
	Global  storeStatus     `json:"global_store"`
}

// storeSummary reports a store's record count after the sync.
func storeSummary(e *patterns.Engine, path string) storeStatus {
	f, ok := e.Load(path)
	return storeStatus{Path: path, Readable: ok, Records: len(f.Patterns)}
}
