package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tealfin/candlecache/internal/core"
)

// LocalDir implements Dir on a local filesystem directory
type LocalDir struct {
	basePath string
}

// NewLocalDir creates a LocalDir rooted at basePath
func NewLocalDir(basePath string) (*LocalDir, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalDir{basePath: basePath}, nil
}

func (l *LocalDir) fullPath(name string) string {
	return filepath.Join(l.basePath, name)
}

func (l *LocalDir) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(name))
	if os.IsNotExist(err) {
		return nil, core.WrapError(core.ErrNotFound, err)
	}
	return data, err
}

func (l *LocalDir) WriteFile(ctx context.Context, name string, data []byte) error {
	fullPath := l.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	return os.WriteFile(fullPath, data, 0644)
}

func (l *LocalDir) Remove(ctx context.Context, name string) error {
	err := os.Remove(l.fullPath(name))
	if os.IsNotExist(err) {
		return core.WrapError(core.ErrNotFound, err)
	}
	return err
}
