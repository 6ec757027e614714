package services

import (
	"context"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/providers"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// LocationService handles location writes
type LocationService struct {
	locationRepo     repositories.LocationRepository
	organizationRepo repositories.OrganizationRepository
	userLocationRepo repositories.UserLocationRepository
	timezones        providers.TimezoneProvider
	search           *LocationSearchService
	publisher        *EventPublisher
}

// NewLocationService creates a new location service
func NewLocationService(
	locationRepo repositories.LocationRepository,
	organizationRepo repositories.OrganizationRepository,
	userLocationRepo repositories.UserLocationRepository,
	timezones providers.TimezoneProvider,
	search *LocationSearchService,
	publisher *EventPublisher,
) *LocationService {
	return &LocationService{
		locationRepo:     locationRepo,
		organizationRepo: organizationRepo,
		userLocationRepo: userLocationRepo,
		timezones:        timezones,
		search:           search,
		publisher:        publisher,
	}
}

// Create validates and stores a new location, filling its timezone from
// its coordinates when none is given
func (s *LocationService) Create(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error) {
	if err := validateCoordinates(location); err != nil {
		return nil, err
	}
	if err := s.addTimezoneIfNeeded(ctx, location); err != nil {
		return nil, err
	}

	location.ID = 0
	location.Deleted = false
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, entities.NewLocationEvent(location.ID, entities.LocationEventCreated, nil))
	return s.search.GetByID(ctx, location.ID, true)
}

// Update replaces the mutable fields of a location and returns the complete
// record, deleted or not
func (s *LocationService) Update(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error) {
	previous, err := s.locationRepo.GetByID(ctx, location.ID, true)
	if err != nil {
		return nil, err
	}

	if location.AllowOffHours {
		orgID := location.OrganizationID
		if orgID == nil {
			orgID = previous.OrganizationID
		}
		if err := s.ensureOrganizationAllowsOffHours(ctx, orgID); err != nil {
			return nil, err
		}
	}

	if err := validateCoordinates(location); err != nil {
		return nil, err
	}
	if location.Coordinates != nil && location.Timezone == "" && sameCoordinates(previous.Coordinates, location) {
		location.Timezone = previous.Timezone
	}
	if err := s.addTimezoneIfNeeded(ctx, location); err != nil {
		return nil, err
	}

	location.Deleted = previous.Deleted
	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, entities.NewLocationEvent(location.ID, entities.LocationEventUpdated, changedFields(&previous.Location, location)))
	return s.search.GetByID(ctx, location.ID, true)
}

// Remove soft-deletes a location
func (s *LocationService) Remove(ctx context.Context, id int64) error {
	if err := s.locationRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publisher.Publish(ctx, entities.NewLocationEvent(id, entities.LocationEventRemoved, nil))
	return nil
}

// UpdateOffHoursByOrganization sets allowOffHours on every live location of
// an organization and returns the affected ids
func (s *LocationService) UpdateOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error) {
	if _, err := s.organizationRepo.GetByID(ctx, organizationID); err != nil {
		return nil, err
	}
	ids, err := s.locationRepo.SetAllowOffHoursByOrganization(ctx, organizationID, allow)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.publisher.Publish(ctx, entities.NewLocationEvent(id, entities.LocationEventOffHoursUpdated,
			map[string]interface{}{"allowOffHours": allow}))
	}
	return ids, nil
}

// EnsureAssigned fails with a policy error unless userID is assigned to locationID
func (s *LocationService) EnsureAssigned(ctx context.Context, userID, locationID int64) error {
	return ensureAssigned(ctx, s.userLocationRepo, userID, locationID)
}

func ensureAssigned(ctx context.Context, repo repositories.UserLocationRepository, userID, locationID int64) error {
	ok, err := repo.IsAssigned(ctx, userID, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotAssignedToLocation()
	}
	return nil
}

func (s *LocationService) ensureOrganizationAllowsOffHours(ctx context.Context, organizationID *int64) error {
	if organizationID == nil {
		return apperrors.OrganizationOffHoursDisabled()
	}
	org, err := s.organizationRepo.GetByID(ctx, *organizationID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return apperrors.OrganizationOffHoursDisabled()
		}
		return err
	}
	if !org.AllowOffHours {
		return apperrors.OrganizationOffHoursDisabled()
	}
	return nil
}

func (s *LocationService) addTimezoneIfNeeded(ctx context.Context, location *entities.Location) error {
	if location.Coordinates == nil || location.Timezone != "" {
		return nil
	}
	tz, err := s.timezones.TimezoneAt(ctx, location.Coordinates.Latitude, location.Coordinates.Longitude)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Float64("latitude", location.Coordinates.Latitude).
			Float64("longitude", location.Coordinates.Longitude).
			Msg("failed to get location timezone")
		return apperrors.TimezoneLookupFailed(err)
	}
	location.Timezone = tz
	return nil
}

func validateCoordinates(location *entities.Location) error {
	if location.Coordinates == nil {
		return nil
	}
	return location.Coordinates.Validate()
}

func sameCoordinates(previous *geo.Point, location *entities.Location) bool {
	if previous == nil || location.Coordinates == nil {
		return false
	}
	return *previous == *location.Coordinates
}

func changedFields(before, after *entities.Location) map[string]interface{} {
	changed := map[string]interface{}{}
	if before.Name != after.Name {
		changed["name"] = after.Name
	}
	if before.AllowOffHours != after.AllowOffHours {
		changed["allowOffHours"] = after.AllowOffHours
	}
	if before.IsDeliveryAvailable != after.IsDeliveryAvailable {
		changed["isDeliveryAvailable"] = after.IsDeliveryAvailable
	}
	if before.Priority != after.Priority {
		changed["priority"] = after.Priority
	}
	if before.Timezone != after.Timezone {
		changed["timezone"] = after.Timezone
	}
	return changed
}
