// Package lifecycle defines the hooks run at each host lifecycle point
// and wires them to the stores they operate on.
package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/hoofy-hooks/internal/config"
	"github.com/HendryAvila/hoofy-hooks/internal/gitinfo"
	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"github.com/HendryAvila/hoofy-hooks/internal/patterns"
	"github.com/HendryAvila/hoofy-hooks/internal/sessions"
	"github.com/HendryAvila/hoofy-hooks/internal/vulncheck"
)

// Lifecycle points the host invokes.
const (
	EventSessionStart = "session-start"
	EventSessionEnd   = "session-end"
	EventPreCompact   = "pre-compact"
)

// Events lists every lifecycle point in invocation order.
var Events = []string{EventSessionStart, EventSessionEnd, EventPreCompact}

// hostEventNames maps lifecycle points to the host's hookEventName.
var hostEventNames = map[string]string{
	EventSessionStart: "SessionStart",
	EventSessionEnd:   "SessionEnd",
	EventPreCompact:   "PreCompact",
}

// Hook names.
const (
	HookPatternSyncPull      = "pattern-sync-pull"
	HookPatternSyncPush      = "pattern-sync-push"
	HookDependencyCheck      = "dependency-check"
	HookGitBranchContext     = "git-branch-context"
	HookSessionTrackingStart = "session-tracking-start"
	HookSessionTrackingEnd   = "session-tracking-end"
	HookTempCleanup          = "temp-cleanup"
	HookCompactionCounter    = "compaction-counter"
)

// Deps are the collaborators every hook is built from. Only Config is
// required; the rest default to the real implementations.
type Deps struct {
	Config config.Config
	Store  *jsonstore.Store
	Log    logging.Sink
	Now    func() time.Time
	// Table overrides the embedded advisory table.
	Table vulncheck.Table
	// OpenLedger opens the session ledger for a project directory.
	OpenLedger func(projectDir string) (*sessions.Store, error)
	// Branch looks up the current git branch.
	Branch func(ctx context.Context, dir string) (string, error)
	// NewSessionID supplies an id when the host sends none.
	NewSessionID func() string
}

// Hooks builds the hook set for each lifecycle point.
type Hooks struct {
	deps Deps
}

// New fills in default collaborators and returns a Hooks.
func New(deps Deps) *Hooks {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	if deps.Store == nil {
		deps.Store = jsonstore.NewDisk(deps.Log)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.OpenLedger == nil {
		deps.OpenLedger = func(dir string) (*sessions.Store, error) {
			return sessions.Open(sessions.Path(dir))
		}
	}
	if deps.Branch == nil {
		deps.Branch = gitinfo.Branch
	}
	if deps.NewSessionID == nil {
		deps.NewSessionID = uuid.NewString
	}
	return &Hooks{deps: deps}
}

// Registry returns the hooks run at event, in registration order.
func (h *Hooks) Registry(event string) (*hooks.Registry, error) {
	reg := hooks.NewRegistry()
	switch event {
	case EventSessionStart:
		reg.MustRegister(HookPatternSyncPull, h.patternSyncPull)
		reg.MustRegister(HookDependencyCheck, h.dependencyCheck)
		reg.MustRegister(HookGitBranchContext, h.gitBranchContext)
		reg.MustRegister(HookSessionTrackingStart, h.sessionTrackingStart)
	case EventSessionEnd:
		reg.MustRegister(HookPatternSyncPush, h.patternSyncPush)
		reg.MustRegister(HookSessionTrackingEnd, h.sessionTrackingEnd)
		reg.MustRegister(HookTempCleanup, h.tempCleanup)
	case EventPreCompact:
		reg.MustRegister(HookCompactionCounter, h.compactionCounter)
		reg.MustRegister(HookPatternSyncPush, h.patternSyncPush)
	default:
		return nil, fmt.Errorf("lifecycle: unknown event %q", event)
	}
	return reg, nil
}

// Dispatcher returns a Dispatcher for event.
func (h *Hooks) Dispatcher(event string) (*hooks.Dispatcher, error) {
	reg, err := h.Registry(event)
	if err != nil {
		return nil, err
	}
	return hooks.NewDispatcher(event, reg, h.deps.Log), nil
}

// FindHook returns the event whose registry holds name, searching Events
// in order.
func (h *Hooks) FindHook(name string) (string, bool) {
	for _, event := range Events {
		reg, _ := h.Registry(event)
		if _, ok := reg.Lookup(name); ok {
			return event, true
		}
	}
	return "", false
}

// ProjectDir resolves the project directory for one invocation.
func (h *Hooks) ProjectDir(in *hooks.Input) string {
	return h.deps.Config.ResolveProjectDir(in.ProjectDir)
}

// Engine builds the pattern sync engine for a project.
func (h *Hooks) Engine(projectDir string) *patterns.Engine {
	return patterns.NewEngine(h.deps.Store, h.deps.Log, patterns.Options{
		ProjectDir:    projectDir,
		HomeDir:       h.deps.Config.HomeDir,
		SkipSlowHooks: h.deps.Config.SkipSlowHooks,
		Now:           h.deps.Now,
	})
}

// Checker builds the dependency checker.
func (h *Hooks) Checker() *vulncheck.Checker {
	return vulncheck.NewChecker(h.deps.Store, h.deps.Log, vulncheck.CheckerOptions{
		Now:   h.deps.Now,
		Table: h.deps.Table,
	})
}

func (h *Hooks) sessionID(in *hooks.Input) string {
	if in.SessionID != "" {
		return in.SessionID
	}
	return h.deps.NewSessionID()
}

func projectName(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}
