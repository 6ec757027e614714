package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
)

// Organizations change rarely and are read on every location detail and
// every POS-scoped nearest lookup.
const organizationTTL = 5 * time.Minute

// CachedOrganizationAdapter wraps an OrganizationRepository with caching
type CachedOrganizationAdapter struct {
	adapter repositories.OrganizationRepository
	cache   providers.CacheProvider
}

// NewCachedOrganizationAdapter creates a new cached organization adapter
func NewCachedOrganizationAdapter(adapter repositories.OrganizationRepository, cache providers.CacheProvider) *CachedOrganizationAdapter {
	return &CachedOrganizationAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func organizationCacheKey(id int64) string {
	return fmt.Sprintf("organization:%d", id)
}

func organizationPosCacheKey(posID string) string {
	return fmt.Sprintf("organization:pos:%s", posID)
}

func (a *CachedOrganizationAdapter) lookup(ctx context.Context, key string) *entities.Organization {
	cached, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var org entities.Organization
	if err := json.Unmarshal(cached, &org); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to unmarshal cached organization")
		return nil
	}
	return &org
}

// store updates the cache asynchronously to avoid blocking the response
func (a *CachedOrganizationAdapter) store(ctx context.Context, org *entities.Organization, keys ...string) {
	logger := observability.LoggerFromContext(ctx)
	go func() {
		data, err := json.Marshal(org)
		if err != nil {
			return
		}
		bgCtx := context.Background()
		for _, key := range keys {
			if err := a.cache.Set(bgCtx, key, data, organizationTTL); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("failed to cache organization")
			}
		}
	}()
}

// GetByID retrieves an organization with caching
func (a *CachedOrganizationAdapter) GetByID(ctx context.Context, id int64) (*entities.Organization, error) {
	key := organizationCacheKey(id)
	if org := a.lookup(ctx, key); org != nil {
		return org, nil
	}

	org, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(ctx, org, key)
	return org, nil
}

// GetByPosID retrieves an organization by POS id with caching. Misses are
// not cached so a newly onboarded POS becomes visible immediately.
func (a *CachedOrganizationAdapter) GetByPosID(ctx context.Context, posID string) (*entities.Organization, error) {
	key := organizationPosCacheKey(posID)
	if org := a.lookup(ctx, key); org != nil {
		return org, nil
	}

	org, err := a.adapter.GetByPosID(ctx, posID)
	if err != nil || org == nil {
		return org, err
	}
	a.store(ctx, org, key, organizationCacheKey(org.ID))
	return org, nil
}
