package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/adapters/memory"
	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/schedule"
)

const laZone = "America/Los_Angeles"

// isbxLat/isbxLong is the ISBX office, the origin of most searches below.
const (
	isbxLat  = 34.020575
	isbxLong = -118.424138
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockTimezoneProvider struct {
	mock.Mock
}

func (m *MockTimezoneProvider) TimezoneAt(ctx context.Context, latitude, longitude float64) (string, error) {
	args := m.Called(ctx, latitude, longitude)
	return args.String(0), args.Error(1)
}

type recordingBus struct {
	mu     sync.Mutex
	events map[string][]*entities.LocationEvent
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: map[string][]*entities.LocationEvent{}}
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.LocationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[channel] = append(b.events[channel], event)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LocationEvent, error) {
	return make(chan *entities.LocationEvent), nil
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) Types(channel string) []entities.LocationEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entities.LocationEventType
	for _, e := range b.events[channel] {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	clock     *clock
	store     *memory.Store
	repos     memory.Repositories
	bus       *recordingBus
	timezones *MockTimezoneProvider
	search    *services.LocationSearchService
	locations *services.LocationService
	hours     *services.HoursService
	reviews   *services.ReviewService
	checkIns  *services.CheckInService
	ids       map[string]int64
	orgID     int64
}

// newFixture seeds four West LA locations with equal priority so distance
// decides their default order. The clock starts on Monday 2024-03-04 at
// 13:00 Los Angeles time.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	la, err := time.LoadLocation(laZone)
	require.NoError(t, err)
	c := &clock{now: time.Date(2024, 3, 4, 13, 0, 0, 0, la)}

	store := memory.NewStore(c.Now)
	repos := store.Repositories()
	bus := newRecordingBus()
	publisher := services.NewEventPublisher(bus)
	timezones := new(MockTimezoneProvider)

	resolver := schedule.NewResolver(schedule.WithClock(c.Now))
	enricher := services.NewHoursEnricher(repos.Hours, repos.Holidays, resolver)
	search := services.NewLocationSearchService(repos.Locations, repos.Organizations, enricher)

	f := &fixture{
		clock:     c,
		store:     store,
		repos:     repos,
		bus:       bus,
		timezones: timezones,
		search:    search,
		locations: services.NewLocationService(repos.Locations, repos.Organizations, repos.UserLocations, timezones, search, publisher),
		hours:     services.NewHoursService(repos.Locations, repos.Hours, repos.Holidays, repos.TimeSlots, repos.UserLocations, enricher, publisher),
		reviews:   services.NewReviewService(repos.Locations, repos.Reviews, publisher, services.WithReviewClock(c.Now)),
		checkIns:  services.NewCheckInService(repos.Locations, repos.CheckIns, publisher, c.Now),
		ids:       map[string]int64{},
	}

	f.orgID = store.AddOrganization(entities.Organization{Name: "Pharmacies", PosID: "pos-pharmacy", AllowOffHours: true})

	for _, loc := range []entities.Location{
		{Name: "ISBX", City: "Santa Monica", AddressLine1: "2120 Colorado Ave", Coordinates: &geo.Point{Longitude: isbxLong, Latitude: isbxLat}},
		{Name: "CVS Pharmacy", City: "Los Angeles", Coordinates: &geo.Point{Longitude: -118.4195, Latitude: 34.0256}, OrganizationID: &f.orgID},
		{Name: "Burger King", City: "Los Angeles", Coordinates: &geo.Point{Longitude: -118.4101, Latitude: 34.0317}, IsDeliveryAvailable: true},
		{Name: "Westfield Century City", City: "Century City", Coordinates: &geo.Point{Longitude: -118.4176, Latitude: 34.0584}},
	} {
		loc := loc
		loc.Timezone = laZone
		require.NoError(t, repos.Locations.Create(context.Background(), &loc))
		f.ids[loc.Name] = loc.ID
	}
	return f
}

func ptr[T any](v T) *T {
	return &v
}

func resultNames(results []*entities.LocationSearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}
