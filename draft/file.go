package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileCache keeps one file per key under dir. Writes go through a temp file
// and a rename so a crash never leaves a half written draft.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating draft directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (f *FileCache) path(key string) string {
	name := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}

func (f *FileCache) Set(ctx context.Context, key string, val []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".draft-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(val); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (f *FileCache) Del(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

var _ Cache = (*FileCache)(nil)
