package patterns

import (
	"context"
	"errors"
	"time"

	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the size cap applied to both stores before parsing.
const DefaultMaxBytes int64 = 1 << 20

// ErrWriteFailed is returned when a merge result could not be persisted.
// The stores are left as they were before the merge.
var ErrWriteFailed = errors.New("patterns: write failed")

// Direction names a sync direction.
type Direction string

const (
	// DirectionPull merges the global store into the project store.
	DirectionPull Direction = "pull"
	// DirectionPush merges the project store into the global store.
	DirectionPush Direction = "push"
)

// SkipReason explains why a sync did not merge. Empty means it merged.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipDisabled    SkipReason = "sync disabled"
	SkipSourceEmpty SkipReason = "source store missing or empty"
	SkipOversized   SkipReason = "store exceeds size cap"
	SkipSlowHooks   SkipReason = "slow hooks skipped"
)

// Report describes the outcome of one Pull or Push.
type Report struct {
	Direction Direction  `json:"direction"`
	Skipped   SkipReason `json:"skipped,omitempty"`
	Added     int        `json:"added"`
	Total     int        `json:"total"`
}

// Options configures an Engine. Every value is explicit so tests never
// depend on process environment.
type Options struct {
	ProjectDir string
	HomeDir    string
	// MaxBytes caps both stores; zero means DefaultMaxBytes.
	MaxBytes int64
	// SkipSlowHooks short-circuits Pull (not Push).
	SkipSlowHooks bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine merges the project and global pattern stores.
type Engine struct {
	store       *jsonstore.Store
	log         logging.Sink
	projectPath string
	globalPath  string
	configPath  string
	maxBytes    int64
	skipSlow    bool
	now         func() time.Time
}

// NewEngine creates an Engine over store.
func NewEngine(store *jsonstore.Store, sink logging.Sink, opts Options) *Engine {
	if sink == nil {
		sink = logging.Nop()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:       store,
		log:         sink,
		projectPath: ProjectPath(opts.ProjectDir),
		globalPath:  GlobalPath(opts.HomeDir),
		configPath:  SyncConfigPath(opts.ProjectDir),
		maxBytes:    opts.MaxBytes,
		skipSlow:    opts.SkipSlowHooks,
		now:         opts.Now,
	}
}

// ProjectPath is the project store this engine writes on Pull.
func (e *Engine) ProjectPath() string { return e.projectPath }

// GlobalPath is the global store this engine writes on Push.
func (e *Engine) GlobalPath() string { return e.globalPath }

// Enabled reads the sync gate. A missing or unparsable config is enabled.
func (e *Engine) Enabled() bool {
	var cfg SyncConfig
	if !e.store.Read(e.configPath, &cfg) {
		return true
	}
	return cfg.Enabled()
}

// Load reads one store. A missing, oversized or malformed store is
// reported as false together with an empty File.
func (e *Engine) Load(path string) (File, bool) {
	var f File
	if !e.store.SizeGuard(path, e.maxBytes) || !e.store.Read(path, &f) {
		return File{}, false
	}
	return f, true
}

// Pull appends global patterns missing from the project store.
func (e *Engine) Pull(ctx context.Context) (Report, error) {
	if e.skipSlow {
		return Report{Direction: DirectionPull, Skipped: SkipSlowHooks}, nil
	}
	return e.sync(ctx, DirectionPull, e.globalPath, e.projectPath, false)
}

// Push appends project patterns missing from the global store and stamps
// the global store's updated time, even when nothing was added.
func (e *Engine) Push(ctx context.Context) (Report, error) {
	return e.sync(ctx, DirectionPush, e.projectPath, e.globalPath, true)
}

func (e *Engine) sync(ctx context.Context, dir Direction, srcPath, dstPath string, stamp bool) (Report, error) {
	report := Report{Direction: dir}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	if !e.Enabled() {
		report.Skipped = SkipDisabled
		return report, nil
	}

	// Size first: neither store is parsed when either is over the cap.
	if !e.store.SizeGuard(srcPath, e.maxBytes) || !e.store.SizeGuard(dstPath, e.maxBytes) {
		report.Skipped = SkipOversized
		return report, nil
	}

	var src File
	if !e.store.Read(srcPath, &src) || len(src.Patterns) == 0 {
		report.Skipped = SkipSourceEmpty
		return report, nil
	}

	// A destination that is not a JSON object counts as empty. Any object
	// decodes, whatever the types of its members.
	var dst File
	if !e.store.Read(dstPath, &dst) {
		dst = File{}
	}

	merged, added := Merge(dst.Patterns, src.Patterns)
	report.Added = added
	report.Total = len(merged)

	if added == 0 && !stamp {
		return report, nil
	}

	if len(dst.Version) == 0 {
		dst.Version = defaultVersion
	}
	dst.Patterns = merged
	if stamp {
		dst.stampUpdated(e.now())
	}

	if !e.store.Write(dstPath, dst) {
		return report, ErrWriteFailed
	}

	e.log.Log("pattern-sync-"+string(dir), "merged patterns", logging.LevelDebug,
		zap.Int("added", added), zap.Int("total", report.Total), zap.String("dest", dstPath))
	return report, nil
}

// Merge appends to dst every record of src whose Text is not already in
// dst, preserving dst order followed by src order. Repeated texts within
// src collapse to their first occurrence. Neither input is modified.
func Merge(dst, src []Record) ([]Record, int) {
	seen := make(map[recordKey]struct{}, len(dst)+len(src))
	out := make([]Record, 0, len(dst)+len(src))
	for _, r := range dst {
		seen[r.key()] = struct{}{}
		out = append(out, r)
	}

	added := 0
	for _, r := range src {
		if _, ok := seen[r.key()]; ok {
			continue
		}
		seen[r.key()] = struct{}{}
		out = append(out, r)
		added++
	}
	return out, added
}
