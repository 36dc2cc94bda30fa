// util/cache_service.go

package util

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/dataeng/api/db"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// PrincipalKeyPrefix namespaces every cached principal.
const PrincipalKeyPrefix = "principal:"

const defaultPrincipalTTL = 300 * time.Second

func PrincipalKey(name string) string {
	return PrincipalKeyPrefix + name
}

// PrincipalCache is a TTL bound projection of the principal store.
type PrincipalCache struct {
	store *db.CacheStore
	ttl   time.Duration
}

func NewPrincipalCache(store *db.CacheStore, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = defaultPrincipalTTL
	}
	return &PrincipalCache{store: store, ttl: ttl}
}

func (c *PrincipalCache) TTL() time.Duration {
	return c.ttl
}

// cachedPrincipal mirrors model.Principal with every field required.
type cachedPrincipal struct {
	ID             *int64      `json:"id"`
	Name           *string     `json:"name"`
	Email          *string     `json:"email"`
	CredentialHash *string     `json:"credential_hash"`
	Role           *model.Role `json:"role"`
	Active         *bool       `json:"active"`
	CreatedAt      *time.Time  `json:"created_at"`
}

func (e cachedPrincipal) principal(name string) (*model.Principal, bool) {
	if e.ID == nil || e.Name == nil || e.Email == nil || e.CredentialHash == nil ||
		e.Role == nil || e.Active == nil || e.CreatedAt == nil {
		return nil, false
	}
	if *e.Name != name || !e.Role.Valid() {
		return nil, false
	}
	return &model.Principal{
		ID:             *e.ID,
		Name:           *e.Name,
		Email:          *e.Email,
		CredentialHash: *e.CredentialHash,
		Role:           *e.Role,
		Active:         *e.Active,
		CreatedAt:      *e.CreatedAt,
	}, true
}

// Get returns the cached principal for name. Incomplete or inconsistent
// entries are treated as a miss and left for the TTL to expire.
func (c *PrincipalCache) Get(ctx context.Context, name string) (*model.Principal, bool) {
	var entry cachedPrincipal
	if !c.store.Get(ctx, PrincipalKey(name), &entry) {
		return nil, false
	}
	principal, ok := entry.principal(name)
	if !ok {
		logger.Warn("Discarding malformed cached principal", zap.String("name", name))
		return nil, false
	}
	return principal, true
}

func (c *PrincipalCache) Set(ctx context.Context, principal *model.Principal) bool {
	if principal == nil || principal.Name == "" {
		return false
	}
	return c.store.Put(ctx, PrincipalKey(principal.Name), principal, c.ttl)
}

func (c *PrincipalCache) Invalidate(ctx context.Context, name string) bool {
	return c.store.Delete(ctx, PrincipalKey(name))
}

func (c *PrincipalCache) Clear(ctx context.Context) bool {
	return c.store.ClearNamespace(ctx, PrincipalKeyPrefix)
}

func (c *PrincipalCache) Stats(ctx context.Context) db.CacheStats {
	return c.store.Stats(ctx, PrincipalKeyPrefix)
}
