package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

// HooksListTool handles the hooks_list MCP tool.
type HooksListTool struct {
	hooks *lifecycle.Hooks
}

// NewHooksListTool creates a HooksListTool.
func NewHooksListTool(h *lifecycle.Hooks) *HooksListTool {
	return &HooksListTool{hooks: h}
}

// Definition returns the MCP tool definition for registration.
func (t *HooksListTool) Definition() mcp.Tool {
	return mcp.NewTool("hooks_list",
		mcp.WithDescription(
			"List the hooks registered for each lifecycle event, in registration order. "+
				"Listing never runs a hook.",
		),
		mcp.WithString("event",
			mcp.Description("Only list this event: session-start, session-end or pre-compact."),
		),
	)
}

// Handle processes the hooks_list tool call.
func (t *HooksListTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events := lifecycle.Events
	if only := req.GetString("event", ""); only != "" {
		events = []string{only}
	}

	var b strings.Builder
	b.WriteString("# Registered Hooks\n")
	for _, event := range events {
		d, err := t.hooks.Dispatcher(event)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown event %q. Valid events: %s",
				event, strings.Join(lifecycle.Events, ", "))), nil
		}
		fmt.Fprintf(&b, "\n## %s (%d hooks)\n\n", d.Event(), d.Registry().Len())
		for _, name := range d.Registry().Names() {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
