// Package server wires the hook runner's MCP components and creates the
// server instance.
//
// This is the composition root: it builds concrete implementations and
// injects them into the tools. No business logic lives here.
package server

import (
	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/HendryAvila/hoofy-hooks/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool registered.
func New(h *lifecycle.Hooks) *server.MCPServer {
	s := server.NewMCPServer(
		"hoofy-hooks",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Introspection ---

	listTool := tools.NewHooksListTool(h)
	s.AddTool(listTool.Definition(), listTool.Handle)

	runTool := tools.NewHooksRunTool(h)
	s.AddTool(runTool.Definition(), runTool.Handle)

	sessionsTool := tools.NewSessionsRecentTool(h)
	s.AddTool(sessionsTool.Definition(), sessionsTool.Handle)

	// --- Manual runs of the slow hooks ---

	syncTool := tools.NewPatternsSyncTool(h)
	s.AddTool(syncTool.Definition(), syncTool.Handle)

	depsTool := tools.NewDepsCheckTool(h)
	s.AddTool(depsTool.Definition(), depsTool.Handle)

	return s
}

// serverInstructions tells the AI what the hook runner exposes.
func serverInstructions() string {
	return `You have access to hoofy-hooks, the lifecycle hook runner for this project.

The hooks run automatically at session start, session end and before context
compaction. They never block the session. Use these tools when the user asks
about them or wants to run one by hand:

- hooks_list: which hooks run at each lifecycle event
- hooks_run: run one hook now and see its result
- patterns_sync: pull global learned patterns into the project, or push project patterns to the global store
- deps_check: check package.json / requirements.txt for known critical or high advisories (cached 24h, refresh=true rescans)
- sessions_recent: recent sessions and how often each was compacted

Learned patterns are append-only and keyed by their text. Do not try to edit
or delete them through these tools.`
}
