package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/providers"
	redisclient "github.com/isbx/locations/backend/internal/infrastructure/clients/redis"
)

func newTestBus(t *testing.T) providers.EventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bus := NewRedisEventBus(redisclient.NewFromRedis(client))
	t.Cleanup(func() {
		bus.Close()
		client.Close()
	})
	return bus
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx, providers.GetLocationChannel(42))
	require.NoError(t, err)

	published := entities.NewLocationEvent(42, entities.LocationEventCheckIn, map[string]interface{}{"mobileNumber": "+13105550100"})
	require.NoError(t, bus.Publish(ctx, providers.GetLocationChannel(42), published))

	select {
	case got := <-events:
		require.NotNil(t, got)
		assert.Equal(t, published.ID, got.ID)
		assert.Equal(t, int64(42), got.LocationID)
		assert.Equal(t, entities.LocationEventCheckIn, got.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedisEventBus_CancelClosesChannel(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := bus.Subscribe(ctx, providers.EventChannelLocationUpdates)
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetLocationChannel(t *testing.T) {
	assert.Equal(t, "location:7", providers.GetLocationChannel(7))
}

func receiveOne(t *testing.T, events <-chan *entities.LocationEvent) *entities.LocationEvent {
	t.Helper()
	select {
	case got, ok := <-events:
		require.True(t, ok, "channel closed")
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBus_FansOutToEverySubscriber(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx, providers.EventChannelLocationUpdates)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.EventChannelLocationUpdates)
	require.NoError(t, err)

	published := entities.NewLocationEvent(3, entities.LocationEventCreated, nil)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelLocationUpdates, published))

	assert.Equal(t, published.ID, receiveOne(t, first).ID)
	assert.Equal(t, published.ID, receiveOne(t, second).ID)
}

func TestRedisEventBus_ResubscribeAfterLastSubscriberLeaves(t *testing.T) {
	bus := newTestBus(t)
	channel := providers.GetLocationChannel(9)

	oldCtx, oldCancel := context.WithCancel(context.Background())
	old, err := bus.Subscribe(oldCtx, channel)
	require.NoError(t, err)
	oldCancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-old:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	published := entities.NewLocationEvent(9, entities.LocationEventHoursUpdated, nil)
	require.NoError(t, bus.Publish(ctx, channel, published))
	assert.Equal(t, published.ID, receiveOne(t, events).ID)
}

func TestRedisEventBus_PublishNil(t *testing.T) {
	bus := newTestBus(t)
	assert.Error(t, bus.Publish(context.Background(), providers.EventChannelLocationUpdates, nil))
}
