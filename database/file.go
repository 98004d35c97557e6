package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend keeps each document in <dir>/<name>/<name>.json.
type FileBackend struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{
		dir:   dir,
		locks: make(map[string]*sync.RWMutex),
	}, nil
}

// Path returns the file holding the named document.
func (b *FileBackend) Path(name string) string {
	return filepath.Join(b.dir, name, name+".json")
}

func (b *FileBackend) Driver() string {
	return "file"
}

func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) lock(name string) *sync.RWMutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		b.locks[name] = l
	}
	return l
}

func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := b.lock(name)
	l.RLock()
	defer l.RUnlock()
	return b.read(name)
}

func (b *FileBackend) Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := b.lock(name)
	l.Lock()
	defer l.Unlock()

	current, err := b.read(name)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return writeFileAtomic(b.Path(name), next, 0o644)
}

func (b *FileBackend) read(name string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// writeFileAtomic replaces path through a synced temp file and a rename, so
// a crash leaves either the old or the new document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	// some platforms refuse fsync on directories
	_ = f.Sync()
	return nil
}
