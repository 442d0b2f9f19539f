// Package vulncheck scans project dependency manifests against a static
// advisory table and caches the rendered warnings for a day.
package vulncheck

import (
	"context"
	"path/filepath"
	"time"

	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"go.uber.org/zap"
)

const (
	// CacheTTL is how long a scan result is reused.
	CacheTTL = 24 * time.Hour
	// NoneMarker is the cached text for a scan with no findings.
	NoneMarker = "none"
	// CacheFile lives under <project>/.claude/feedback.
	CacheFile = "dependency-check-cache.json"

	logName = "dependency-check"
)

// CacheEntry is the persisted result of the last scan.
type CacheEntry struct {
	Warnings string `json:"warnings"`
	// Timestamp is Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// CachePath returns the cache file for a project.
func CachePath(projectDir string) string {
	return filepath.Join(projectDir, ".claude", "feedback", CacheFile)
}

// CheckerOptions configures a Checker. Zero values use the defaults.
type CheckerOptions struct {
	Now   func() time.Time
	Table Table
	TTL   time.Duration
}

// Checker runs cached dependency scans.
type Checker struct {
	store *jsonstore.Store
	log   logging.Sink
	now   func() time.Time
	table Table
	ttl   time.Duration
}

// NewChecker creates a Checker. A nil Table loads the embedded one lazily.
func NewChecker(store *jsonstore.Store, sink logging.Sink, opts CheckerOptions) *Checker {
	if sink == nil {
		sink = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = CacheTTL
	}
	return &Checker{store: store, log: sink, now: opts.Now, table: opts.Table, ttl: opts.TTL}
}

// Result is the outcome of one Check.
type Result struct {
	// Warnings is the rendered report, "" when nothing is vulnerable.
	Warnings string `json:"warnings"`
	// Findings is only populated by a fresh scan.
	Findings  []Finding `json:"findings,omitempty"`
	Cached    bool      `json:"cached"`
	Manifests []string  `json:"manifests,omitempty"`
}

// Check returns the project's dependency warnings, reusing a cache entry
// younger than the TTL unless refresh is set. Every fresh scan rewrites
// the cache, storing NoneMarker when nothing was found. Manifest problems
// never surface as errors; only a cancelled ctx does.
func (c *Checker) Check(ctx context.Context, projectDir string, refresh bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	manifests := DetectManifests(c.store, projectDir)
	if len(manifests) == 0 {
		return Result{}, nil
	}
	var res Result
	for _, m := range manifests {
		res.Manifests = append(res.Manifests, m.File)
	}

	cachePath := CachePath(projectDir)
	now := c.now()
	if !refresh {
		if entry, ok := c.fresh(cachePath, now); ok {
			res.Cached = true
			if entry.Warnings != NoneMarker {
				res.Warnings = entry.Warnings
			}
			return res, nil
		}
	}

	table := c.table
	if table == nil {
		t, err := DefaultTable()
		if err != nil {
			c.log.Log(logName, "advisory table unavailable", logging.LevelWarn, zap.Error(err))
		}
		table = t
	}

	res.Findings = Scan(table, manifests)
	res.Warnings = Render(res.Findings)

	entry := CacheEntry{Warnings: res.Warnings, Timestamp: now.UnixMilli()}
	if entry.Warnings == "" {
		entry.Warnings = NoneMarker
	}
	c.store.Write(cachePath, entry)

	c.log.Log(logName, "scan complete", logging.LevelDebug,
		zap.Int("findings", len(res.Findings)), zap.Strings("manifests", res.Manifests))
	return res, nil
}

// fresh returns the cache entry when it is younger than the TTL. An entry
// from the future (clock skew) is not fresh.
func (c *Checker) fresh(path string, now time.Time) (CacheEntry, bool) {
	var entry CacheEntry
	if !c.store.Read(path, &entry) || entry.Warnings == "" {
		return CacheEntry{}, false
	}
	age := now.Sub(time.UnixMilli(entry.Timestamp))
	if age < 0 || age >= c.ttl {
		return CacheEntry{}, false
	}
	return entry, true
}
