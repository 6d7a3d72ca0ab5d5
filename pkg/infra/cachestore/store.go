// Package cachestore implements interfaces.CacheStore on top of blob backends.
// Every entry is one gzip compressed tarball named {prefix}{channel}/{lockfile-hash}/{triple}.tar.gz.
package cachestore

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/infra/archive"
)

type backend interface {
	open(ctx context.Context, name string) (io.ReadCloser, bool, error)
	write(ctx context.Context, name string, r io.Reader) error
	location(name string) string
}

type store struct {
	backend backend
	prefix  string
}

var _ interfaces.CacheStore = (*store)(nil)

func (s *store) objectName(key model.CacheKey) string {
	return s.prefix + key.String() + ".tar.gz"
}

// Load restores the entry for key into dest
func (s *store) Load(ctx context.Context, key model.CacheKey, dest string) (bool, error) {
	name := s.objectName(key)
	rc, found, err := s.backend.open(ctx, name)
	if err != nil {
		return false, goerr.Wrap(err, "failed to open cache entry", goerr.V("object", name))
	}
	if !found {
		return false, nil
	}
	defer rc.Close()

	if err := archive.ExtractTarGz(rc, dest); err != nil {
		return false, goerr.Wrap(err, "failed to extract cache entry", goerr.V("object", name))
	}
	return true, nil
}

// Save streams src into the backend under key
func (s *store) Save(ctx context.Context, key model.CacheKey, src string) error {
	name := s.objectName(key)
	pr, pw := io.Pipe()

	go func() {
		pw.CloseWithError(archive.WriteTarGz(pw, src))
	}()

	if err := s.backend.write(ctx, name, pr); err != nil {
		pr.CloseWithError(err)
		return goerr.Wrap(err, "failed to write cache entry", goerr.V("object", name))
	}
	return nil
}

// Location returns where the entry for key lives
func (s *store) Location(key model.CacheKey) string {
	return s.backend.location(s.objectName(key))
}
