package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/HendryAvila/hoofy-hooks/internal/hooks"
	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"github.com/HendryAvila/hoofy-hooks/internal/patterns"
)

// StaleTempAge is how old a leftover temp file must be before cleanup
// removes it. Younger files may belong to a writer still in flight.
const StaleTempAge = time.Hour

// tempPattern matches temp files left by interrupted atomic writes.
const tempPattern = "**/*" + jsonstore.TempSuffix

func (h *Hooks) patternSyncPush(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	if h.deps.Config.HomeDir == "" {
		return hooks.SilentSuccess(), errNoHome
	}
	report, err := h.Engine(h.ProjectDir(in)).Push(ctx)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	if report.Skipped != "" {
		h.deps.Log.Log(HookPatternSyncPush, "skipped", logging.LevelDebug, zap.String("reason", string(report.Skipped)))
	}
	return hooks.SilentSuccess(), nil
}

func (h *Hooks) sessionTrackingEnd(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	dir := h.ProjectDir(in)
	ledger, err := h.deps.OpenLedger(dir)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	defer func() { _ = ledger.Close() }()

	id := h.sessionID(in)
	if err := ledger.End(ctx, id, projectName(dir), dir, in.LastAssistantMessage); err != nil {
		return hooks.SilentSuccess(), fmt.Errorf("tracking session end: %w", err)
	}
	return hooks.SilentSuccess(), nil
}

func (h *Hooks) compactionCounter(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	dir := h.ProjectDir(in)
	ledger, err := h.deps.OpenLedger(dir)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	defer func() { _ = ledger.Close() }()

	n, err := ledger.IncrementCompactions(ctx, h.sessionID(in), projectName(dir), dir)
	if err != nil {
		return hooks.SilentSuccess(), err
	}
	h.deps.Log.Log(HookCompactionCounter, "compaction recorded", logging.LevelDebug, zap.Int("compactions", n))
	return hooks.SilentSuccess(), nil
}

func (h *Hooks) tempCleanup(ctx context.Context, in *hooks.Input) (hooks.Result, error) {
	removed, err := CleanStaleTemp(ctx, patterns.FeedbackPath(h.ProjectDir(in)), h.deps.Now().Add(-StaleTempAge))
	if removed > 0 {
		h.deps.Log.Log(HookTempCleanup, "removed stale temp files", logging.LevelInfo, zap.Int("removed", removed))
	}
	return hooks.SilentSuccess(), err
}

// CleanStaleTemp removes temp files under root last modified before
// cutoff and reports how many were removed. A missing root is not an
// error.
func CleanStaleTemp(ctx context.Context, root string, cutoff time.Time) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(root), tempPattern)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: matching temp files: %w", err)
	}

	removed := 0
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("lifecycle: removing %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
