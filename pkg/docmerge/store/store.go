// Package store is where merged documents are written.
//
// Paths are slash-separated and relative to the store root, the way a
// document library addresses its items. Dir keeps them on the local
// filesystem.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that would leave the store root
var ErrOutsideRoot = errors.New("path escapes store root")

// Store reads and writes documents by relative path
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	// Put writes data to path, creating parent folders as needed
	Put(ctx context.Context, path string, data []byte) error
	// EnsureFolder creates the folder and all of its parents
	EnsureFolder(ctx context.Context, path string) error
}

// Dir is a Store rooted at a local directory
type Dir struct {
	Root string
}

var _ Store = Dir{}

func (d Dir) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Put writes through a temporary file in the target folder so a reader
// never sees a partially written document.
func (d Dir) Put(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if full == d.root() {
		return fmt.Errorf("put %q: not a file path", p)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder for %q: %w", p, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".*")
	if err != nil {
		return fmt.Errorf("put %q: %w", p, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("put %q: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("put %q: %w", p, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("put %q: %w", p, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("put %q: %w", p, err)
	}
	return nil
}

func (d Dir) EnsureFolder(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("ensure folder %q: %w", p, err)
	}
	return nil
}

func (d Dir) root() string {
	if d.Root == "" {
		return "."
	}
	return filepath.Clean(d.Root)
}

// resolve maps a store path to a filesystem path under Root
func (d Dir) resolve(p string) (string, error) {
	p = strings.ReplaceAll(p, `\`, "/")
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideRoot)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideRoot)
	}
	if clean == "." {
		return d.root(), nil
	}
	return filepath.Join(d.root(), filepath.FromSlash(clean)), nil
}
