package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps each collection as <Dir>/<collection>.json.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{Dir: dir}, nil
}

func (f *FileBackend) path(c Collection) string {
	return filepath.Join(f.Dir, string(c)+".json")
}

// Load implements Backend.
func (f *FileBackend) Load(ctx context.Context, c Collection) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// Save writes to a temp file in the same directory, syncs it, and renames it
// over the target so the swap is atomic on POSIX filesystems.
func (f *FileBackend) Save(ctx context.Context, c Collection, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, "."+string(c)+"-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, f.path(c)); err != nil {
		cleanup()
		return err
	}
	return nil
}
