package providers

import (
	"context"
)

// TimezoneProvider resolves a coordinate to an IANA timezone name
type TimezoneProvider interface {
	// TimezoneAt returns a name such as "America/Los_Angeles"
	TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error)
}
