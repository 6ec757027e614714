package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/providers"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

func TestLocationService_CreateResolvesTimezone(t *testing.T) {
	f := newFixture(t)
	f.timezones.On("TimezoneAt", mock.Anything, 40.7484, -73.9857).Return("America/New_York", nil).Once()

	result, err := f.locations.Create(context.Background(), &entities.Location{
		Name:        "Empire State",
		Coordinates: &geo.Point{Longitude: -73.9857, Latitude: 40.7484},
	})

	require.NoError(t, err)
	assert.Equal(t, "America/New_York", result.Timezone)
	assert.NotZero(t, result.ID)
	assert.Equal(t, []entities.LocationEventType{entities.LocationEventCreated},
		f.bus.Types(providers.GetLocationChannel(result.ID)))
	f.timezones.AssertExpectations(t)
}

func TestLocationService_CreateKeepsGivenTimezone(t *testing.T) {
	f := newFixture(t)

	result, err := f.locations.Create(context.Background(), &entities.Location{
		Name:        "Given",
		Timezone:    "America/Chicago",
		Coordinates: &geo.Point{Longitude: -87.62, Latitude: 41.88},
	})

	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", result.Timezone)
	f.timezones.AssertNotCalled(t, "TimezoneAt", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocationService_CreateFailsWhenTimezoneLookupFails(t *testing.T) {
	f := newFixture(t)
	f.timezones.On("TimezoneAt", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := f.locations.Create(context.Background(), &entities.Location{
		Name:        "Nowhere",
		Coordinates: &geo.Point{Longitude: 10, Latitude: 10},
	})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimezoneLookupFailed))
	assert.Empty(t, f.bus.Types(providers.EventChannelLocationUpdates))
}

func TestLocationService_CreateRejectsInvalidCoordinates(t *testing.T) {
	f := newFixture(t)

	_, err := f.locations.Create(context.Background(), &entities.Location{
		Name:        "Off the map",
		Coordinates: &geo.Point{Longitude: 200, Latitude: 10},
	})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCoordinates))
}

func TestLocationService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row, err := f.repos.Locations.GetByID(ctx, f.ids["Burger King"], false)
	require.NoError(t, err)
	loc := row.Location
	loc.Name = "Burger King Sawtelle"

	result, err := f.locations.Update(ctx, &loc)

	require.NoError(t, err)
	assert.Equal(t, "Burger King Sawtelle", result.Name)
	assert.Equal(t, laZone, result.Timezone)
	events := f.bus.events[providers.GetLocationChannel(loc.ID)]
	require.Len(t, events, 1)
	assert.Equal(t, "Burger King Sawtelle", events[0].ChangedFields["name"])
}

func TestLocationService_UpdateMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.locations.Update(context.Background(), &entities.Location{ID: 404, Name: "ghost"})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeLocationNotFound))
}

func TestLocationService_UpdateOffHoursNeedsOrganizationConsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row, err := f.repos.Locations.GetByID(ctx, f.ids["ISBX"], false)
	require.NoError(t, err)
	loc := row.Location
	loc.AllowOffHours = true

	_, err = f.locations.Update(ctx, &loc)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePolicyDenied))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeOrganizationOffHoursDisabled))

	closed := f.store.AddOrganization(entities.Organization{Name: "Strict", AllowOffHours: false})
	loc.OrganizationID = &closed
	_, err = f.locations.Update(ctx, &loc)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeOrganizationOffHoursDisabled))

	cvs, err := f.repos.Locations.GetByID(ctx, f.ids["CVS Pharmacy"], false)
	require.NoError(t, err)
	cvsLoc := cvs.Location
	cvsLoc.AllowOffHours = true
	result, err := f.locations.Update(ctx, &cvsLoc)
	require.NoError(t, err)
	assert.True(t, result.AllowOffHours)
	assert.True(t, result.HoursToday.IsOpen)
	assert.True(t, result.HoursToday.IsOffHours)
}

func TestLocationService_UpdateKeepsDeletedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ids["Westfield Century City"]
	require.NoError(t, f.locations.Remove(ctx, id))

	row, err := f.repos.Locations.GetByID(ctx, id, true)
	require.NoError(t, err)
	loc := row.Location
	loc.Deleted = false
	loc.Name = "Westfield"

	result, err := f.locations.Update(ctx, &loc)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Equal(t, "Westfield", result.Name)
}

func TestLocationService_Remove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.ids["ISBX"]

	require.NoError(t, f.locations.Remove(ctx, id))

	_, err := f.search.GetByID(ctx, id, false)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	result, err := f.search.GetByID(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	err = f.locations.Remove(ctx, 12345)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLocationNotFound))
}

func TestLocationService_UpdateOffHoursByOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids, err := f.locations.UpdateOffHoursByOrganization(ctx, f.orgID, true)

	require.NoError(t, err)
	assert.Equal(t, []int64{f.ids["CVS Pharmacy"]}, ids)
	row, err := f.repos.Locations.GetByID(ctx, f.ids["CVS Pharmacy"], false)
	require.NoError(t, err)
	assert.True(t, row.AllowOffHours)
	assert.Contains(t, f.bus.Types(providers.EventChannelLocationUpdates), entities.LocationEventOffHoursUpdated)

	_, err = f.locations.UpdateOffHoursByOrganization(ctx, 999, true)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLocationService_EnsureAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AssignUser(7, f.ids["ISBX"])

	assert.NoError(t, f.locations.EnsureAssigned(ctx, 7, f.ids["ISBX"]))

	err := f.locations.EnsureAssigned(ctx, 7, f.ids["CVS Pharmacy"])
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePolicyDenied))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotAssignedToLocation))
}
