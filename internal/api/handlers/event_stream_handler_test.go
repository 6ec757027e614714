package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/api/handlers"
	"github.com/isbx/locations/backend/internal/domain/entities"
)

// fakeBus hands out a pre-filled, closed channel so a stream drains it and returns
type fakeBus struct {
	events     []*entities.LocationEvent
	err        error
	subscribed []string
}

func (b *fakeBus) Publish(ctx context.Context, channel string, event *entities.LocationEvent) error {
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LocationEvent, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.subscribed = append(b.subscribed, channel)
	ch := make(chan *entities.LocationEvent, len(b.events))
	for _, e := range b.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func (b *fakeBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *fakeBus) Close() error { return nil }

func TestEventStreamHandler_FiltersByType(t *testing.T) {
	bus := &fakeBus{events: []*entities.LocationEvent{
		entities.NewLocationEvent(3, entities.LocationEventUpdated, nil),
		entities.NewLocationEvent(3, entities.LocationEventCheckIn, map[string]interface{}{"mobileNumber": "+13105550100"}),
	}}
	handler := handlers.NewEventStreamHandler(bus).WithHeartbeat(time.Hour)

	rec := serve("GET /api/stream/locations", handler.StreamLocationEvents,
		httptest.NewRequest(http.MethodGet, "/api/stream/locations?types=checkin.created", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, "event: checkin.created\n")
	assert.Contains(t, body, `"mobileNumber":"+13105550100"`)
	assert.NotContains(t, body, "event: location.updated")
	assert.Equal(t, []string{"locations:events"}, bus.subscribed)
	assert.Equal(t, 0, handler.ClientCount())
}

func TestEventStreamHandler_LocationChannel(t *testing.T) {
	bus := &fakeBus{events: []*entities.LocationEvent{
		entities.NewLocationEvent(7, entities.LocationEventHoursUpdated, map[string]interface{}{"kind": "regular"}),
	}}
	handler := handlers.NewEventStreamHandler(bus).WithHeartbeat(time.Hour)

	rec := serve("GET /api/stream/locations/{id}", handler.StreamLocationUpdates,
		httptest.NewRequest(http.MethodGet, "/api/stream/locations/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: location.hours_updated\n")
	assert.Equal(t, []string{"location:7"}, bus.subscribed)

	rec = serve("GET /api/stream/locations/{id}", handler.StreamLocationUpdates,
		httptest.NewRequest(http.MethodGet, "/api/stream/locations/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventStreamHandler_SubscribeFailure(t *testing.T) {
	handler := handlers.NewEventStreamHandler(&fakeBus{err: errors.New("redis down")})

	rec := serve("GET /api/stream/locations", handler.StreamLocationEvents,
		httptest.NewRequest(http.MethodGet, "/api/stream/locations", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
