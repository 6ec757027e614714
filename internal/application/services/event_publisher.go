package services

import (
	"context"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
)

// EventPublisher fans location events out to the global and per-location
// channels. Publishing never fails the originating write.
type EventPublisher struct {
	bus providers.EventBus
}

// NewEventPublisher creates a publisher. A nil bus disables publishing.
func NewEventPublisher(bus providers.EventBus) *EventPublisher {
	return &EventPublisher{bus: bus}
}

// Publish sends event to subscribers
func (p *EventPublisher) Publish(ctx context.Context, event *entities.LocationEvent) {
	if p == nil || p.bus == nil || event == nil {
		return
	}
	for _, channel := range []string{
		providers.EventChannelLocationUpdates,
		providers.GetLocationChannel(event.LocationID),
	} {
		if err := p.bus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("channel", channel).
				Str("event_type", string(event.EventType)).
				Int64("location_id", event.LocationID).
				Msg("failed to publish location event")
		}
	}
}
