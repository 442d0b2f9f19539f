package jsonstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Backend is the minimal byte-level persistence the Store needs.
// Abstracted so merge, size-guard and TTL logic can run against MemBackend.
type Backend interface {
	Get(path string) ([]byte, error)
	Set(path string, data []byte) error
	Exists(path string) bool
	Size(path string) (int64, error)
}

// TempSuffix marks in-flight writes left behind by DiskBackend.Set.
const TempSuffix = ".tmp"

// DiskBackend implements Backend on the local filesystem.
type DiskBackend struct{}

// NewDiskBackend creates a filesystem-backed Backend.
func NewDiskBackend() *DiskBackend {
	return &DiskBackend{}
}

// Get reads the whole file.
func (DiskBackend) Get(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Set replaces path atomically: the document is written to a temp file in
// the same directory and renamed over the destination, so a concurrent
// reader sees either the old or the new document, never a torn one.
func (DiskBackend) Set(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+TempSuffix)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Exists reports whether path exists.
func (DiskBackend) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the size of path in bytes.
func (DiskBackend) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// MemBackend is an in-memory Backend. Safe for concurrent use.
type MemBackend struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailWrites makes every Set fail, for exercising swallowed write errors.
	FailWrites bool
}

// NewMemBackend creates an empty in-memory Backend.
func NewMemBackend() *MemBackend {
	return &MemBackend{files: make(map[string][]byte)}
}

// Get returns a copy of the stored bytes or fs.ErrNotExist.
func (m *MemBackend) Get(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Set stores a copy of data.
func (m *MemBackend) Set(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrPermission}
	}
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

// Exists reports whether path has been set.
func (m *MemBackend) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Size returns the stored length or fs.ErrNotExist.
func (m *MemBackend) Size(path string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return int64(len(data)), nil
}
