package interfaces

import (
	"context"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// CacheStore persists dependency cache directories keyed by channel and lockfile hash
type CacheStore interface {
	// Load restores the entry into dest. found is false on a cold cache.
	Load(ctx context.Context, key model.CacheKey, dest string) (found bool, err error)
	// Save stores src under key, replacing any previous entry.
	// Stored entries must be readable by every identity that can reach the store.
	Save(ctx context.Context, key model.CacheKey, src string) error
	// Location describes where the entry lives, for reporting
	Location(key model.CacheKey) string
}
