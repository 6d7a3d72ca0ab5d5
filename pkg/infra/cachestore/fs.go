package cachestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
)

// Entries are world-readable so that jobs running under another identity can restore them
const (
	fsDirMode  = 0755
	fsFileMode = 0644
)

type fsBackend struct {
	root string
}

// NewFS creates a cache store rooted at a local directory
func NewFS(root string) interfaces.CacheStore {
	return &store{backend: &fsBackend{root: root}}
}

func (b *fsBackend) path(name string) string {
	return filepath.Join(b.root, filepath.FromSlash(name))
}

func (b *fsBackend) open(_ context.Context, name string) (io.ReadCloser, bool, error) {
	f, err := os.Open(b.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to open cache file")
	}
	return f, true, nil
}

func (b *fsBackend) write(ctx context.Context, name string, r io.Reader) error {
	dest := b.path(name)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, fsDirMode); err != nil {
		return goerr.Wrap(err, "failed to create cache directory", goerr.V("dir", dir))
	}
	// MkdirAll is subject to umask
	root := filepath.Clean(b.root)
	for d := dir; d != root && strings.HasPrefix(d, root); d = filepath.Dir(d) {
		if err := os.Chmod(d, fsDirMode); err != nil {
			return goerr.Wrap(err, "failed to set cache directory permissions", goerr.V("dir", d))
		}
	}

	tmp, err := os.CreateTemp(dir, ".convoy-cache-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary cache file", goerr.V("dir", dir))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write cache file")
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close cache file")
	}
	if err := ctx.Err(); err != nil {
		return goerr.Wrap(err, "cache write cancelled")
	}
	if err := os.Chmod(tmp.Name(), fsFileMode); err != nil {
		return goerr.Wrap(err, "failed to set cache file permissions")
	}
	// rename replaces any concurrent writer's entry: last writer wins
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return goerr.Wrap(err, "failed to move cache file into place", goerr.V("dest", dest))
	}
	return nil
}

func (b *fsBackend) location(name string) string {
	return b.path(name)
}
