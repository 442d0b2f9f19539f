package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/hoofy-hooks/internal/gitinfo"
	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
)

var errNoHome = errors.New("lifecycle: home directory unknown")

func (h *Hooks) patternSyncPull(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	if h.deps.Config.HomeDir == "" {
		return hooks.SilentSuccess(), errNoHome
	}
	report, err := h.Engine(h.ProjectDir(in)).Pull(ctx)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	if report.Skipped != "" {
		h.deps.Log.Log(HookPatternSyncPull, "skipped", logging.LevelDebug, zap.String("reason", string(report.Skipped)))
	}
	return hooks.SilentSuccess(), nil
}

// dependencyCheck surfaces known-vulnerable dependencies as a system
// message. The scan is skipped entirely under the slow-hooks flag.
func (h *Hooks) dependencyCheck(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	if h.deps.Config.SkipSlowHooks {
		return hooks.SilentSuccess(), nil
	}
	res, err := h.Checker().Check(ctx, h.ProjectDir(in), false)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	if res.Warnings == "" {
		return hooks.SilentSuccess(), nil
	}
	return hooks.WithSystemMessage(res.Warnings), nil
}

func (h *Hooks) gitBranchContext(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, gitinfo.DefaultTimeout)
	defer cancel()

	branch, err := h.deps.Branch(ctx, h.ProjectDir(in))
	if errors.Is(err, gitinfo.ErrNotRepository) {
		return hooks.SilentSuccess(), nil
	}
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	return hooks.WithContext(hostEventNames[EventSessionStart], gitinfo.Context(branch)), nil
}

func (h *Hooks) sessionTrackingStart(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	dir := h.ProjectDir(in)
	ledger, err := h.deps.OpenLedger(dir)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	defer func() { _ = ledger.Close() }()

	id := h.sessionID(in)
	if err := ledger.Start(ctx, id, projectName(dir), dir, in.AgentType); err != nil {
		return hooks.SilentSuccess(), fmt.Errorf("tracking session start: %w", err)
	}
	return hooks.SilentSuccess(), nil
}
