// Package sessions keeps a per-project SQLite ledger of agent sessions.
//
// Rows are created at session start, closed at session end and carry a
// compaction counter bumped before every context compaction. Every write
// is idempotent or monotonic, so hooks may be re-run in any order.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// DBFile is the ledger's file name under <project>/.claude/feedback.
const DBFile = "sessions.db"

// MaxSummaryRunes bounds the stored session summary.
const MaxSummaryRunes = 500

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned by Get for an unknown session id.
var ErrNotFound = errors.New("sessions: not found")

// Session is one ledger row.
type Session struct {
	ID          string  `json:"id"`
	Project     string  `json:"project"`
	Directory   string  `json:"directory"`
	AgentType   string  `json:"agent_type,omitempty"`
	StartedAt   string  `json:"started_at"`
	EndedAt     *string `json:"ended_at,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	Compactions int     `json:"compactions"`
}

// Path returns the ledger location for a project.
func Path(projectDir string) string {
	return filepath.Join(projectDir, ".claude", "feedback", DBFile)
}

// Store is the session ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path and migrates it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessions: open database: %w", err)
	}
	// One connection so the pragmas below hold for every statement.
	db.SetMaxOpenConns(1)

	// Concurrent hook processes serialize on the busy timeout.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sessions: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sessions: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			project     TEXT    NOT NULL,
			directory   TEXT    NOT NULL,
			agent_type  TEXT,
			started_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			ended_at    TEXT,
			summary     TEXT,
			compactions INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project, started_at);
	`)
	return err
}

// Start records a session. Starting an existing session is a no-op.
func (s *Store) Start(ctx context.Context, id, project, directory, agentType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, project, directory, agent_type) VALUES (?, ?, ?, ?)`,
		id, project, directory, nullableString(agentType),
	)
	if err != nil {
		return fmt.Errorf("sessions: start %s: %w", id, err)
	}
	return nil
}

// End marks a session finished with an optional summary, truncated to
// MaxSummaryRunes. A session that was never started is created first.
func (s *Store) End(ctx context.Context, id, project, directory, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, project, directory, ended_at, summary)
		VALUES (?, ?, ?, datetime('now'), ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			summary  = COALESCE(excluded.summary, sessions.summary)`,
		id, project, directory, nullableString(Truncate(summary, MaxSummaryRunes)),
	)
	if err != nil {
		return fmt.Errorf("sessions: end %s: %w", id, err)
	}
	return nil
}

// IncrementCompactions bumps the session's compaction counter and returns
// the new value. The counter only ever grows.
func (s *Store) IncrementCompactions(ctx context.Context, id, project, directory string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, project, directory, compactions)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET compactions = sessions.compactions + 1
		RETURNING compactions`,
		id, project, directory,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sessions: increment compactions %s: %w", id, err)
	}
	return n, nil
}

// Get returns one session.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project, directory, COALESCE(agent_type, ''), started_at, ended_at, summary, compactions
		FROM sessions WHERE id = ?`, id)

	var sess Session
	err := row.Scan(&sess.ID, &sess.Project, &sess.Directory, &sess.AgentType,
		&sess.StartedAt, &sess.EndedAt, &sess.Summary, &sess.Compactions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sessions: get %s: %w", id, err)
	}
	return &sess, nil
}

// Recent returns the latest sessions, newest first. An empty project
// matches every project.
func (s *Store) Recent(ctx context.Context, project string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, project, directory, COALESCE(agent_type, ''), started_at, ended_at, summary, compactions
		FROM sessions WHERE 1=1`
	args := []any{}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sessions: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Project, &sess.Directory, &sess.AgentType,
			&sess.StartedAt, &sess.EndedAt, &sess.Summary, &sess.Compactions); err != nil {
			return nil, fmt.Errorf("sessions: recent: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
