package model

import (
	"io/fs"
	"path"
)

// CacheKey identifies a dependency cache entry. Entries hold a leg's target directory,
// so the key is scoped to one triple as well as the toolchain and lockfile.
type CacheKey struct {
	Channel      Channel
	LockfileHash string
	Triple       string
}

// ForTarget returns k scoped to the leg building triple
func (k CacheKey) ForTarget(triple string) CacheKey {
	k.Triple = triple
	return k
}

func (k CacheKey) String() string {
	return path.Join(string(k.Channel), k.LockfileHash, k.Triple)
}

// CacheEntry describes a restored or persisted cache
type CacheEntry struct {
	Key         CacheKey
	Location    string
	Permissions fs.FileMode
}
