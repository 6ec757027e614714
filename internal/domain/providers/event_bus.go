package providers

import (
	"context"
	"strconv"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to location events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.LocationEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.LocationEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelLocationUpdates carries every location lifecycle event
	EventChannelLocationUpdates = "locations:events"

	// EventChannelLocationPrefix is the prefix for location-specific channels
	EventChannelLocationPrefix = "location:"
)

// GetLocationChannel returns the channel name for a specific location
func GetLocationChannel(locationID int64) string {
	return EventChannelLocationPrefix + strconv.FormatInt(locationID, 10)
}
