package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File keeps the cumulative metadata in one JSON document. Every commit
// rewrites the document through a temporary file and a rename, so a crash
// leaves either the previous or the new content on disk.
type File struct {
	mu     sync.Mutex
	path   string
	st     *state
	closed bool
}

var _ Store = (*File)(nil)

// NewFile opens the document at path, loading its content when it exists.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("metadata file: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	f := &File{path: path, st: newState()}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, f.st); err != nil {
		return nil, fmt.Errorf("parse metadata file: %w", err)
	}
	if f.st.Nodes == nil {
		f.st.Nodes = make(map[string]NodeRecord)
	}
	if f.st.Edges == nil {
		f.st.Edges = make(map[string]EdgeRecord)
	}
	return f, nil
}

// Path returns the document location.
func (f *File) Path() string { return f.path }

func (f *File) Commit(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	next := f.st.clone()
	next.apply(b)

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace metadata file: %w", err)
	}
	f.st = next
	return nil
}

// Counts returns the number of stored nodes and edges.
func (f *File) Counts() (nodes, edges int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.st.Nodes), len(f.st.Edges)
}

func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
