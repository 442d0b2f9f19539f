package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

// HooksRunTool handles the hooks_run MCP tool: it runs one named hook and
// shows the result that hook would hand the host.
type HooksRunTool struct {
	hooks *lifecycle.Hooks
}

// NewHooksRunTool creates a HooksRunTool.
func NewHooksRunTool(h *lifecycle.Hooks) *HooksRunTool {
	return &HooksRunTool{hooks: h}
}

// Definition returns the MCP tool definition for registration.
func (t *HooksRunTool) Definition() mcp.Tool {
	return mcp.NewTool("hooks_run",
		mcp.WithDescription("Run a single registered hook and return its result."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Hook name as listed by hooks_list."),
		),
		mcp.WithString("session_id",
			mcp.Description("Session id passed to the hook."),
		),
		projectDirParam(),
	)
}

// Handle processes the hooks_run tool call.
func (t *HooksRunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	event, ok := t.hooks.FindHook(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No hook named %q. Use hooks_list to see registered hooks.", name)), nil
	}
	d, err := t.hooks.Dispatcher(event)
	if err != nil {
		return nil, err
	}

	in := &hooks.Input{
		SessionID:  req.GetString("session_id", ""),
		ProjectDir: resolveProjectDir(t.hooks, req),
	}
	res, err := d.RunOne(ctx, in, name)
	if err != nil && !errors.Is(err, hooks.ErrUnknownHook) {
		return mcp.NewToolResultError(fmt.Sprintf("Hook %s failed: %v", name, err)), nil
	}
	return jsonResult("Hook "+name, res)
}
