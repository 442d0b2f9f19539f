package vulncheck

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type checkerFixture struct {
	backend *jsonstore.MemBackend
	checker *Checker
	now     time.Time
}

func newChecker(t *testing.T, files map[string]string) *checkerFixture {
	t.Helper()
	backend := jsonstore.NewMemBackend()
	for path, content := range files {
		require.NoError(t, backend.Set(filepath.Join(testProject, path), []byte(content)))
	}
	f := &checkerFixture{backend: backend, now: scanTime}
	f.checker = NewChecker(jsonstore.New(backend, nil), nil, CheckerOptions{
		Now: func() time.Time { return f.now },
	})
	return f
}

func (f *checkerFixture) entry(t *testing.T) CacheEntry {
	t.Helper()
	data, err := f.backend.Get(CachePath(testProject))
	require.NoError(t, err)
	var e CacheEntry
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func (f *checkerFixture) seed(t *testing.T, warnings string, at time.Time) {
	t.Helper()
	data, err := json.Marshal(CacheEntry{Warnings: warnings, Timestamp: at.UnixMilli()})
	require.NoError(t, err)
	require.NoError(t, f.backend.Set(CachePath(testProject), data))
}

func TestCheck_VulnerableManifest(t *testing.T) {
	f := newChecker(t, map[string]string{
		PackageJSON: `{"dependencies": {"lodash": "^4.17.20"}}`,
	})

	res, err := f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Contains(t, res.Warnings, "HIGH:")
	assert.Contains(t, res.Warnings, "CVE-2021-23337")
	assert.Contains(t, res.Warnings, "fixed in 4.17.21")
	assert.Equal(t, 1, strings.Count(res.Warnings, "Run: npm audit fix"))
	assert.NotContains(t, res.Warnings, "pip-audit")

	e := f.entry(t)
	assert.Equal(t, res.Warnings, e.Warnings)
	assert.Equal(t, scanTime.UnixMilli(), e.Timestamp)
}

func TestCheck_NoFindingsCachesNone(t *testing.T) {
	f := newChecker(t, map[string]string{
		PackageJSON: `{"dependencies": {"lodash": "^4.17.21"}}`,
	})

	res, err := f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, NoneMarker, f.entry(t).Warnings)

	// Within the TTL the "none" entry is reused instead of rescanning.
	require.NoError(t, f.backend.Set(filepath.Join(testProject, PackageJSON),
		[]byte(`{"dependencies": {"lodash": "4.0.0"}}`)))
	f.now = scanTime.Add(time.Hour)

	res, err = f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Empty(t, res.Warnings)
}

func TestCheck_Staleness(t *testing.T) {
	tests := []struct {
		name   string
		age    time.Duration
		cached bool
	}{
		{"just written", 0, true},
		{"24h minus 1ms", CacheTTL - time.Millisecond, true},
		{"exactly 24h", CacheTTL, false},
		{"24h plus 1ms", CacheTTL + time.Millisecond, false},
		{"from the future", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChecker(t, map[string]string{
				PackageJSON: `{"dependencies": {"lodash": "^4.17.20"}}`,
			})
			f.seed(t, "cached text", scanTime.Add(-tt.age))

			res, err := f.checker.Check(context.Background(), testProject, false)
			require.NoError(t, err)
			assert.Equal(t, tt.cached, res.Cached)
			if tt.cached {
				assert.Equal(t, "cached text", res.Warnings)
				return
			}
			assert.Contains(t, res.Warnings, "CVE-2021-23337")
			assert.Equal(t, scanTime.UnixMilli(), f.entry(t).Timestamp)
		})
	}
}

func TestCheck_RefreshBypassesCache(t *testing.T) {
	f := newChecker(t, map[string]string{
		PackageJSON: `{"dependencies": {"lodash": "^4.17.20"}}`,
	})
	f.seed(t, NoneMarker, scanTime)

	res, err := f.checker.Check(context.Background(), testProject, true)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Contains(t, res.Warnings, "CVE-2021-23337")
}

func TestCheck_NoManifestWritesNothing(t *testing.T) {
	f := newChecker(t, nil)

	res, err := f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.False(t, f.backend.Exists(CachePath(testProject)))
}

func TestCheck_MalformedManifestIsAbsent(t *testing.T) {
	f := newChecker(t, map[string]string{
		PackageJSON: `{"dependencies": {"lodash": `,
	})

	res, err := f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Manifests)
}

func TestCheck_MalformedCacheRescans(t *testing.T) {
	f := newChecker(t, map[string]string{
		RequirementsTxt: "requests==2.25.0\n",
	})
	require.NoError(t, f.backend.Set(CachePath(testProject), []byte(`{"warnings": 12`)))

	res, err := f.checker.Check(context.Background(), testProject, false)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Contains(t, res.Warnings, "Run: pip-audit -r requirements.txt")
}

func TestCheck_CancelledContext(t *testing.T) {
	f := newChecker(t, map[string]string{
		PackageJSON: `{"dependencies": {"lodash": "^4.17.20"}}`,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.checker.Check(ctx, testProject, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.backend.Exists(CachePath(testProject)))
}

func TestCachePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/work/app", ".claude", "feedback", "dependency-check-cache.json"),
		CachePath("/work/app"))
}
