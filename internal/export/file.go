package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes dated documents into a local directory.
type FileDestination struct {
	dir string
}

// NewFileDestination creates a destination rooted at dir, which is created
// on first write.
func NewFileDestination(dir string) *FileDestination {
	return &FileDestination{dir: dir}
}

func (d *FileDestination) Name() string { return "file" }

// Write replaces dir/name through a temporary file and rename, so readers
// never see a partial document.
func (d *FileDestination) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
