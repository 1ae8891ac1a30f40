// Package file implements store.Store on a local directory, one file per key.
// Writes go through a temp file followed by rename, so every Set is an atomic
// whole-value replace on POSIX filesystems.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Danyalalam/X-automation/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Config holds the file store settings.
type Config struct {
	// Dir is the state directory. Created if absent.
	Dir string
}

// Store implements store.Store on top of a directory of files.
type Store struct {
	dir string
}

// NewStore creates the state directory and returns a file store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", cfg.Dir, err)
	}
	return &Store{dir: cfg.Dir}, nil
}

// Get reads the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, &store.Error{Op: store.OpGet, Err: err}
	}
	return data, nil
}

// Set atomically replaces the value at key (temp file + rename).
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &store.Error{Op: store.OpSet, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &store.Error{Op: store.OpSet, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &store.Error{Op: store.OpSet, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &store.Error{Op: store.OpSet, Err: err}
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return &store.Error{Op: store.OpSet, Err: err}
	}
	return nil
}

// Del removes the value at key. Deleting an absent key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return &store.Error{Op: store.OpDel, Err: err}
	}
	return nil
}

// Ping verifies the state directory is still accessible.
func (s *Store) Ping(_ context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *Store) Close() {}

// WaitForReady checks directory accessibility once; a local directory is
// either there or it is not.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// path maps a logical key to a file under the state directory. Colons in
// keys (redis-style namespacing) become underscores.
func (s *Store) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}
