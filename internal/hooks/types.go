// Package hooks runs the named lifecycle hooks the host invokes.
//
// Every hook in this package is non-blocking: whatever a hook returns,
// returns as an error, or panics with, the host sees a result whose
// continue flag is true. The Dispatcher goes further and reduces an entire
// lifecycle event to the single fixed SilentSuccess result.
package hooks

import (
	"context"
	"encoding/json"
)

// Input is the JSON object the host writes to stdin. The same *Input is
// shared by every hook of one dispatch, so hooks must treat it as
// read-only.
type Input struct {
	ToolName             string          `json:"tool_name"`
	SessionID            string          `json:"session_id"`
	ProjectDir           string          `json:"project_dir,omitempty"`
	ToolInput            json.RawMessage `json:"tool_input,omitempty"`
	AgentType            string          `json:"agent_type,omitempty"`
	AddedDirs            []string        `json:"added_dirs,omitempty"`
	LastAssistantMessage string          `json:"last_assistant_message,omitempty"`
	HookEventName        string          `json:"hook_event_name,omitempty"`
	CWD                  string          `json:"cwd,omitempty"`
}

// SpecificOutput carries event-specific data back to the host.
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName,omitempty"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Result is the JSON object written back to the host.
//
// StopReason exists so that a hook asking to block can be represented;
// Normalize always clears it before anything reaches the host.
type Result struct {
	Continue           bool            `json:"continue"`
	SuppressOutput     bool            `json:"suppressOutput,omitempty"`
	StopReason         string          `json:"stopReason,omitempty"`
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
	SystemMessage      string          `json:"systemMessage,omitempty"`
}

// SilentSuccess is the canonical non-blocking result: continue, output
// suppressed.
func SilentSuccess() Result {
	return Result{Continue: true, SuppressOutput: true}
}

// WithContext returns a continuing result that adds text to the model's
// context for the given event.
func WithContext(event, text string) Result {
	return Result{
		Continue:           true,
		HookSpecificOutput: &SpecificOutput{HookEventName: event, AdditionalContext: text},
	}
}

// WithSystemMessage returns a continuing result shown to the user.
func WithSystemMessage(msg string) Result {
	return Result{Continue: true, SystemMessage: msg}
}

// Normalize forces the non-blocking contract onto r.
func (r Result) Normalize() Result {
	r.Continue = true
	r.StopReason = ""
	return r
}

// Func is one hook. A returned error, like a panic, is caught by the
// caller and never blocks the session.
type Func func(ctx context.Context, in *Input) (Result, error)
