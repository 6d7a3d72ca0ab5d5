package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// CacheEntryPermissions is the minimum mode of every persisted file: readable by all identities
const CacheEntryPermissions fs.FileMode = 0444

// CacheManager restores and persists dependency caches around builds
type CacheManager struct {
	store interfaces.CacheStore
}

// NewCacheManager creates a CacheManager. A nil store disables caching.
func NewCacheManager(store interfaces.CacheStore) *CacheManager {
	return &CacheManager{store: store}
}

// Enabled reports whether a cache store is configured
func (m *CacheManager) Enabled() bool {
	return m != nil && m.store != nil
}

// KeyFor derives the run-wide part of the cache key from the toolchain channel and the
// dependency lockfile. A missing lockfile hashes as an empty document. Legs scope it
// with CacheKey.ForTarget.
func KeyFor(channel model.Channel, lockfilePath string) (model.CacheKey, error) {
	data, err := os.ReadFile(lockfilePath)
	if err != nil && !os.IsNotExist(err) {
		return model.CacheKey{}, goerr.Wrap(err, "failed to read lockfile", goerr.V("path", lockfilePath))
	}

	sum := sha256.Sum256(data)
	return model.CacheKey{
		Channel:      channel,
		LockfileHash: hex.EncodeToString(sum[:]),
	}, nil
}

// Restore loads the entry for key into dir. A cold cache returns nil without error.
func (m *CacheManager) Restore(ctx context.Context, key model.CacheKey, dir string) (*model.CacheEntry, error) {
	if !m.Enabled() {
		return nil, nil
	}

	found, err := m.store.Load(ctx, key, dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to restore cache", goerr.V("key", key.String()))
	}
	if !found {
		ctxlog.From(ctx).Debug("Cache miss", "key", key.String())
		return nil, nil
	}

	ctxlog.From(ctx).Info("Cache restored", "key", key.String(), "dir", dir)
	return &model.CacheEntry{
		Key:         key,
		Location:    m.store.Location(key),
		Permissions: CacheEntryPermissions,
	}, nil
}

// Persist stores the build's target directory under key. Only successful builds are
// persisted; anything else returns without touching the store.
func (m *CacheManager) Persist(ctx context.Context, key model.CacheKey, result *model.BuildResult) (*model.CacheEntry, error) {
	if !m.Enabled() || result == nil || result.Status != model.BuildSuccess {
		return nil, nil
	}
	if key.Triple != result.Target.Triple {
		return nil, goerr.New("cache key belongs to another target",
			goerr.V("key", key.String()), goerr.V("triple", result.Target.Triple))
	}

	// The cache is consumed by jobs running under other identities
	if err := widenPermissions(result.TargetDir); err != nil {
		return nil, goerr.Wrap(err, "failed to widen cache permissions", goerr.V("dir", result.TargetDir))
	}

	if err := m.store.Save(ctx, key, result.TargetDir); err != nil {
		return nil, goerr.Wrap(err, "failed to persist cache", goerr.V("key", key.String()))
	}

	ctxlog.From(ctx).Info("Cache persisted", "key", key.String())
	return &model.CacheEntry{
		Key:         key,
		Location:    m.store.Location(key),
		Permissions: CacheEntryPermissions,
	}, nil
}

// widenPermissions is chmod -R a+r, adding a+x on directories so they stay traversable
func widenPermissions(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		mode := info.Mode().Perm() | 0444
		if d.IsDir() {
			mode |= 0111
		}
		if mode == info.Mode().Perm() {
			return nil
		}
		return os.Chmod(path, mode)
	})
}
