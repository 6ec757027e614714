package timezone

import (
	"context"
	"fmt"
	"time"
)

// StaticTimezoneProvider answers every lookup with one zone. It backs local
// development and the in-memory store where no Maps key is configured.
type StaticTimezoneProvider struct {
	zone string
}

// NewStaticTimezoneProvider validates zone and returns a provider for it
func NewStaticTimezoneProvider(zone string) (*StaticTimezoneProvider, error) {
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", zone, err)
	}
	return &StaticTimezoneProvider{zone: zone}, nil
}

// TimezoneAt returns the configured zone
func (s *StaticTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	return s.zone, nil
}
