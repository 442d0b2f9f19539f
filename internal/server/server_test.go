package server

import (
	"context"
	"strings"
	"testing"

	"github.com/HendryAvila/hoofy-hooks/internal/config"
	"github.com/HendryAvila/hoofy-hooks/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestHooks(t *testing.T) *lifecycle.Hooks {
	t.Helper()
	return lifecycle.New(lifecycle.Deps{Config: config.Config{ProjectDir: t.TempDir(), HomeDir: t.TempDir()}})
}

func TestNew_RegistersTools(t *testing.T) {
	registered := New(newTestHooks(t)).ListTools()

	want := []string{"hooks_list", "hooks_run", "sessions_recent", "patterns_sync", "deps_check"}
	for _, name := range want {
		if _, ok := registered[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
	if len(registered) != len(want) {
		t.Errorf("registered %d tools, want %d", len(registered), len(want))
	}
}

func TestNew_HandlersAreWired(t *testing.T) {
	registered := New(newTestHooks(t)).ListTools()

	tool, ok := registered["hooks_list"]
	if !ok {
		t.Fatal("hooks_list missing")
	}
	result, err := tool.Handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatal("hooks_list returned an error result")
	}
	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "pattern-sync-pull") {
		t.Errorf("hooks_list output missing pattern-sync-pull:\n%s", text)
	}
}

func TestServerInstructions_NameEveryTool(t *testing.T) {
	instructions := serverInstructions()
	for _, name := range []string{"hooks_list", "hooks_run", "patterns_sync", "deps_check", "sessions_recent"} {
		if !strings.Contains(instructions, name) {
			t.Errorf("instructions do not mention %s", name)
		}
	}
}
