package timezone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
)

// CachedTimezoneProvider memoizes lookups in a CacheProvider. Coordinates are
// rounded to four decimals (about 11 m) to form the key.
type CachedTimezoneProvider struct {
	next  providers.TimezoneProvider
	cache providers.CacheProvider
	ttl   time.Duration
}

// NewCachedTimezoneProvider wraps next with cache
func NewCachedTimezoneProvider(next providers.TimezoneProvider, cache providers.CacheProvider, ttl time.Duration) *CachedTimezoneProvider {
	return &CachedTimezoneProvider{next: next, cache: cache, ttl: ttl}
}

func cacheKey(latitude, longitude float64) string {
	return fmt.Sprintf("tz:%.4f:%.4f", latitude, longitude)
}

// TimezoneAt returns a cached zone or delegates and stores the result
func (c *CachedTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	key := cacheKey(latitude, longitude)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil && len(cached) > 0:
		return string(cached), nil
	case err != nil && !errors.Is(err, providers.ErrCacheMiss):
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("timezone cache read failed")
	}

	tz, err := c.next.TimezoneAt(ctx, latitude, longitude)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, []byte(tz), c.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("timezone cache write failed")
	}
	return tz, nil
}
