package jsonstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// File is a JSON array on disk. Human-readable, portable, one writer per
// process. A missing file reads as an empty array.
type File[T any] struct {
	mu   sync.Mutex
	path string
}

func New[T any](path string) *File[T] {
	return &File[T]{path: path}
}

func (f *File[T]) Path() string { return f.path }

func (f *File[T]) Load() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File[T]) load() ([]T, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []T
	if err := sonic.ConfigStd.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (f *File[T]) Save(items []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(items)
}

func (f *File[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := sonic.ConfigStd.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Update loads, applies fn and saves while holding the lock. Nothing is
// written when fn fails.
func (f *File[T]) Update(fn func([]T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.load()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return f.save(items)
}
