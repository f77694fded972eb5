package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists derived image objects under a key and returns their
// public URL.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DiskStorage keeps objects in a local directory that is served statically
// under publicBase.
type DiskStorage struct {
	dir        string
	publicBase string
}

func NewDiskStorage(dir, publicBase string) (*DiskStorage, error) {
	if dir == "" {
		return nil, errors.New("media: disk directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create directory: %w", err)
	}
	return &DiskStorage{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (d *DiskStorage) Dir() string { return d.dir }

func (d *DiskStorage) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("media: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write %s: %w", key, err)
	}
	return d.publicBase + "/" + key, nil
}

func (d *DiskStorage) Delete(_ context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("media: delete %s: %w", key, err)
	}
	return nil
}

func (d *DiskStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("media: invalid key %q", key)
	}
	return filepath.Join(d.dir, clean), nil
}
