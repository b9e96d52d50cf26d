package storage

import (
	"bitwise74/media-api/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("storage.local_path can't be empty")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	f, err := os.Create(l.path(key))
	if err != nil {
		return fmt.Errorf("failed to create blob file, %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to write blob file, %w", err)
	}

	return nil
}

func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob file, %w", err)
	}

	return f, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob file, %w", err)
	}

	return nil
}

// URLFor is always empty for local storage, the app streams the bytes
func (l *Local) URLFor(string) string {
	return ""
}

func (l *Local) Backend() string {
	return model.BackendLocal
}

// path flattens the key so a crafted key can't escape the storage dir
func (l *Local) path(key string) string {
	return filepath.Join(l.dir, filepath.Base(key))
}
