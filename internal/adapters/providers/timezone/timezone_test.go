package timezone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/isbx/locations/backend/internal/adapters/cache"
	redisclient "github.com/isbx/locations/backend/internal/infrastructure/clients/redis"
	"github.com/isbx/locations/backend/pkg/retry"
)

type MockTimezoneProvider struct {
	mock.Mock
}

func (m *MockTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	args := m.Called(ctx, latitude, longitude)
	return args.String(0), args.Error(1)
}

func TestGoogleTimezoneProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/timezone/json", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("location"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dstOffset":0,"rawOffset":-28800,"status":"OK","timeZoneId":"America/Los_Angeles","timeZoneName":"Pacific Standard Time"}`))
	}))
	defer server.Close()

	provider, err := NewGoogleTimezoneProvider("AIzaNotReallyAnAPIKey", maps.WithBaseURL(server.URL))
	require.NoError(t, err)

	tz, err := provider.TimezoneAt(context.Background(), 34.020575, -118.424138)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", tz)
}

func TestGoogleTimezoneProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","errorMessage":"bad key"}`))
	}))
	defer server.Close()

	provider, err := NewGoogleTimezoneProvider("AIzaNotReallyAnAPIKey", maps.WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = provider.TimezoneAt(context.Background(), 34.0, -118.0)
	assert.Error(t, err)
}

func TestCachedTimezoneProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := cache.NewRedisAdapter(redisclient.NewFromRedis(client), "")

	upstream := new(MockTimezoneProvider)
	upstream.On("TimezoneAt", mock.Anything, 34.020575, -118.424138).Return("America/Los_Angeles", nil).Once()

	provider := NewCachedTimezoneProvider(upstream, store, time.Hour)

	for i := 0; i < 3; i++ {
		tz, err := provider.TimezoneAt(context.Background(), 34.020575, -118.424138)
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", tz)
	}
	upstream.AssertExpectations(t)
	assert.Len(t, mr.Keys(), 1)
}

func TestBreakerTimezoneProvider_Trips(t *testing.T) {
	upstream := new(MockTimezoneProvider)
	upstream.On("TimezoneAt", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Times(2)

	provider := NewBreakerTimezoneProvider(upstream, 2, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := provider.TimezoneAt(context.Background(), 1, 1)
		assert.Error(t, err)
	}
	assert.Equal(t, "open", provider.State())

	_, err := provider.TimezoneAt(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "open")
	upstream.AssertExpectations(t)

	// An open breaker ends a retry loop on the first attempt
	calls := 0
	err = retry.Do(context.Background(), retry.Config{MaxAttempts: 5, InitialDelay: time.Millisecond, BackoffFactor: 1}, func() error {
		calls++
		_, err := provider.TimezoneAt(context.Background(), 1, 1)
		return err
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestStaticTimezoneProvider(t *testing.T) {
	provider, err := NewStaticTimezoneProvider("America/Puerto_Rico")
	require.NoError(t, err)

	tz, err := provider.TimezoneAt(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "America/Puerto_Rico", tz)

	_, err = NewStaticTimezoneProvider("Not/AZone")
	assert.Error(t, err)
}
