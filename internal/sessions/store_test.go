package sessions

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "feedback", DBFile))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_WALMode(t *testing.T) {
	s := newTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_OpenFailure(t *testing.T) {
	orig := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }
	t.Cleanup(func() { openDB = orig })

	if _, err := Open(filepath.Join(t.TempDir(), DBFile)); err == nil {
		t.Fatal("Open should fail when the driver fails")
	}
}

func TestOpen_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), DBFile)

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Start(ctx, "sess-1", "proj", "/work/proj", ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Get(ctx, "sess-1"); err != nil {
		t.Errorf("session lost across reopen: %v", err)
	}
}

func TestStart_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Start(ctx, "sess-1", "proj", "/work/proj", "reviewer"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx, "sess-1", "other", "/elsewhere", "coder"); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	sess, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.Project != "proj" || sess.Directory != "/work/proj" || sess.AgentType != "reviewer" {
		t.Errorf("second Start overwrote the row: %+v", sess)
	}
	if sess.StartedAt == "" {
		t.Error("StartedAt should be set")
	}
	if sess.EndedAt != nil {
		t.Error("EndedAt should be nil before End")
	}
}

func TestEnd(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Start(ctx, "sess-1", "proj", "/work/proj", "")

	if err := s.End(ctx, "sess-1", "proj", "/work/proj", "Refactored the parser"); err != nil {
		t.Fatalf("End: %v", err)
	}
	sess, _ := s.Get(ctx, "sess-1")
	if sess.EndedAt == nil {
		t.Fatal("EndedAt should be set")
	}
	if sess.Summary == nil || *sess.Summary != "Refactored the parser" {
		t.Errorf("Summary = %v", sess.Summary)
	}

	// Ending again without a summary keeps the previous one.
	if err := s.End(ctx, "sess-1", "proj", "/work/proj", ""); err != nil {
		t.Fatalf("second End: %v", err)
	}
	sess, _ = s.Get(ctx, "sess-1")
	if sess.Summary == nil || *sess.Summary != "Refactored the parser" {
		t.Errorf("Summary after empty End = %v", sess.Summary)
	}
}

func TestEnd_WithoutStartCreatesRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.End(ctx, "orphan", "proj", "/work/proj", "done"); err != nil {
		t.Fatalf("End: %v", err)
	}
	sess, err := s.Get(ctx, "orphan")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.EndedAt == nil {
		t.Error("EndedAt should be set")
	}
}

func TestEnd_TruncatesSummary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	long := strings.Repeat("é", MaxSummaryRunes+20)
	if err := s.End(ctx, "sess-1", "proj", "/work/proj", long); err != nil {
		t.Fatalf("End: %v", err)
	}
	sess, _ := s.Get(ctx, "sess-1")
	if got := utf8.RuneCountInString(*sess.Summary); got != MaxSummaryRunes+3 {
		t.Errorf("summary runes = %d, want %d", got, MaxSummaryRunes+3)
	}
	if !strings.HasSuffix(*sess.Summary, "...") {
		t.Error("truncated summary should end with ...")
	}
}

func TestIncrementCompactions_Monotonic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Start(ctx, "sess-1", "proj", "/work/proj", "")

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementCompactions(ctx, "sess-1", "proj", "/work/proj")
		if err != nil {
			t.Fatalf("IncrementCompactions: %v", err)
		}
		if got != want {
			t.Errorf("compactions = %d, want %d", got, want)
		}
	}

	// Restarting the session must not reset the counter.
	_ = s.Start(ctx, "sess-1", "proj", "/work/proj", "")
	sess, _ := s.Get(ctx, "sess-1")
	if sess.Compactions != 3 {
		t.Errorf("compactions after restart = %d, want 3", sess.Compactions)
	}
}

func TestIncrementCompactions_UnknownSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.IncrementCompactions(ctx, "late", "proj", "/work/proj")
	if err != nil {
		t.Fatalf("IncrementCompactions: %v", err)
	}
	if n != 1 {
		t.Errorf("compactions = %d, want 1", n)
	}
}

func TestIncrementCompactions_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementCompactions(ctx, "sess-1", "proj", "/work/proj"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("IncrementCompactions: %v", err)
	}

	sess, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.Compactions != n {
		t.Errorf("compactions = %d, want %d", sess.Compactions, n)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_ = s.Start(ctx, "a", "proj", "/work/proj", "")
	_ = s.Start(ctx, "b", "other", "/work/other", "")
	_ = s.Start(ctx, "c", "proj", "/work/proj", "")

	got, err := s.Recent(ctx, "proj", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("Recent(proj) = %+v, want [c a]", got)
	}

	all, err := s.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(all) returned %d sessions, want 3", len(all))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolong", 3, "too..."},
		{"日本語テキスト", 3, "日本語..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPath(t *testing.T) {
	want := filepath.Join("/work/proj", ".claude", "feedback", "sessions.db")
	if got := Path("/work/proj"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}
