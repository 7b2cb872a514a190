package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore keeps objects as files under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(key string) string {
	if s.root == "" {
		return filepath.FromSlash(key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("storage: failed to write %s: %w", key, err)
	}
	return nil
}

// List returns the keys of files whose slash-separated path starts with prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	base := s.root
	if base == "" {
		base = "."
	}
	// Walk from the deepest directory the prefix names.
	start := base
	absolute := s.root == "" && filepath.IsAbs(prefix)
	if dir := filepath.Dir(filepath.FromSlash(prefix)); absolute {
		start = dir
	} else if dir != "." {
		start = filepath.Join(base, dir)
	}

	var keys []string
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := p
		if !absolute {
			if rel, err = filepath.Rel(base, p); err != nil {
				return err
			}
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
