// Package jsonstore reads and writes small JSON documents without ever
// failing the caller.
//
// Every hook persists its state through this package. Read reports a
// plain bool instead of an error: a missing, unreadable, malformed or
// oversized document is "no document", and the caller falls back to its
// empty state. Write failures are logged and swallowed.
package jsonstore

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/HendryAvila/hoofy-hooks/internal/logging"
	"go.uber.org/zap"
)

// DefaultReadCap bounds how large a document Read will parse.
const DefaultReadCap int64 = 1 << 20

// logName is the hook name used for store diagnostics.
const logName = "jsonstore"

// Store is the never-failing JSON layer over a Backend.
type Store struct {
	backend Backend
	log     logging.Sink
	readCap int64
}

// Option configures a Store.
type Option func(*Store)

// WithReadCap overrides DefaultReadCap.
func WithReadCap(n int64) Option {
	return func(s *Store) { s.readCap = n }
}

// New creates a Store. A nil sink discards diagnostics.
func New(backend Backend, sink logging.Sink, opts ...Option) *Store {
	if sink == nil {
		sink = logging.Nop()
	}
	s := &Store{backend: backend, log: sink, readCap: DefaultReadCap}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDisk is shorthand for New(NewDiskBackend(), sink).
func NewDisk(sink logging.Sink) *Store {
	return New(NewDiskBackend(), sink)
}

// Backend exposes the underlying Backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Read decodes path into v. It returns false when the document is
// missing, unreadable, larger than the read cap, or not valid JSON for v.
// v may be partially written when false is returned.
func (s *Store) Read(path string, v any) bool {
	if !s.SizeGuard(path, s.readCap) {
		return false
	}
	data, err := s.backend.Get(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Log(logName, "read failed", logging.LevelDebug, zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Log(logName, "malformed document", logging.LevelDebug, zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// Write serializes v with 2-space indentation and a trailing newline.
// Missing parent directories are created. Failures are logged at warn
// and reported as false; they never propagate.
func (s *Store) Write(path string, v any) bool {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Log(logName, "marshal failed", logging.LevelWarn, zap.String("path", path), zap.Error(err))
		return false
	}
	data = append(data, '\n')
	if err := s.backend.Set(path, data); err != nil {
		s.log.Log(logName, "write failed", logging.LevelWarn, zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// Exists reports whether a document is present at path.
func (s *Store) Exists(path string) bool {
	return s.backend.Exists(path)
}

// SizeGuard reports whether path is within capBytes, looking only at the
// size, never the content. A missing file passes; a file exactly at the
// cap passes; anything larger, or a file whose size cannot be read, fails.
func (s *Store) SizeGuard(path string, capBytes int64) bool {
	size, err := s.backend.Size(path)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	if size > capBytes {
		s.log.Log(logName, "size cap exceeded", logging.LevelWarn,
			zap.String("path", path), zap.Int64("size", size), zap.Int64("cap", capBytes))
		return false
	}
	return true
}
