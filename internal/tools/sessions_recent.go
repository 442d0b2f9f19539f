package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/HendryAvila/hoofy-hooks/internal/sessions"
	"github.com/mark3labs/mcp-go/mcp"
)

// SessionsRecentTool handles the sessions_recent MCP tool.
type SessionsRecentTool struct {
	hooks *lifecycle.Hooks
}

// NewSessionsRecentTool creates a SessionsRecentTool.
func NewSessionsRecentTool(h *lifecycle.Hooks) *SessionsRecentTool {
	return &SessionsRecentTool{hooks: h}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionsRecentTool) Definition() mcp.Tool {
	return mcp.NewTool("sessions_recent",
		mcp.WithDescription("Show the latest sessions recorded in the project's session ledger, with compaction counts."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum sessions to show (default 5)."),
		),
		projectDirParam(),
	)
}

// Handle processes the sessions_recent tool call.
func (t *SessionsRecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := resolveProjectDir(t.hooks, req)
	ledger, err := sessions.Open(sessions.Path(dir))
	if err != nil {
		return nil, fmt.Errorf("opening session ledger: %w", err)
	}
	defer func() { _ = ledger.Close() }()

	list, err := ledger.Recent(ctx, "", req.GetInt("limit", 5))
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("# Recent Sessions\n\nNo sessions recorded yet.\n"), nil
	}

	var b strings.Builder
	b.WriteString("# Recent Sessions\n\n")
	b.WriteString("| Session | Started | Ended | Compactions |\n")
	b.WriteString("|---------|---------|-------|-------------|\n")
	for _, s := range list {
		ended := "—"
		if s.EndedAt != nil {
			ended = *s.EndedAt
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %d |\n", s.ID, s.StartedAt, ended, s.Compactions)
	}
	return mcp.NewToolResultText(b.String()), nil
}
