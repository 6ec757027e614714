package timezone

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"github.com/isbx/locations/backend/internal/domain/providers"
)

const defaultLookupTimeout = 8 * time.Second

// GoogleTimezoneProvider resolves coordinates through the Google Maps Time Zone API
type GoogleTimezoneProvider struct {
	client  *maps.Client
	timeout time.Duration
	now     func() time.Time
}

// NewGoogleTimezoneProvider creates a provider for the given API key.
// Extra client options (such as maps.WithBaseURL in tests) are appended.
func NewGoogleTimezoneProvider(apiKey string, opts ...maps.ClientOption) (*GoogleTimezoneProvider, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleTimezoneProvider{
		client:  c,
		timeout: defaultLookupTimeout,
		now:     time.Now,
	}, nil
}

var _ providers.TimezoneProvider = (*GoogleTimezoneProvider)(nil)

// TimezoneAt returns the IANA zone id at the coordinate
func (g *GoogleTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Timezone(ctx, &maps.TimezoneRequest{
		Location:  &maps.LatLng{Lat: latitude, Lng: longitude},
		Timestamp: g.now(),
	})
	if err != nil {
		return "", fmt.Errorf("timezone lookup failed: %w", err)
	}
	if resp.TimeZoneID == "" {
		return "", fmt.Errorf("timezone lookup returned no zone for %f,%f", latitude, longitude)
	}
	return resp.TimeZoneID, nil
}
