package services

import (
	"context"
	"strings"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/domain/schedule"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// HoursService manages weekly hours, holidays and delivery time slots
type HoursService struct {
	locationRepo repositories.LocationRepository
	hoursRepo    repositories.HoursRepository
	holidayRepo  repositories.HolidayRepository
	slotRepo     repositories.DeliveryTimeSlotRepository
	assignments  repositories.UserLocationRepository
	enricher     *HoursEnricher
	publisher    *EventPublisher
}

// NewHoursService creates a new hours service
func NewHoursService(
	locationRepo repositories.LocationRepository,
	hoursRepo repositories.HoursRepository,
	holidayRepo repositories.HolidayRepository,
	slotRepo repositories.DeliveryTimeSlotRepository,
	assignments repositories.UserLocationRepository,
	enricher *HoursEnricher,
	publisher *EventPublisher,
) *HoursService {
	return &HoursService{
		locationRepo: locationRepo,
		hoursRepo:    hoursRepo,
		holidayRepo:  holidayRepo,
		slotRepo:     slotRepo,
		assignments:  assignments,
		enricher:     enricher,
		publisher:    publisher,
	}
}

// GetHours returns the weekly rules of a location, Sunday first
func (s *HoursService) GetHours(ctx context.Context, kind entities.HoursKind, locationID int64) ([]entities.HourRule, error) {
	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return nil, err
	}
	rules, err := s.hoursRepo.ListByLocation(ctx, kind, locationID)
	if err != nil {
		return nil, err
	}
	schedule.SortRules(rules)
	return rules, nil
}

// SaveHours validates rules and upserts them by day of week. Nothing is
// written when any rule is invalid. A non-nil actingUserID must be assigned
// to the location.
func (s *HoursService) SaveHours(ctx context.Context, kind entities.HoursKind, locationID int64, actingUserID *int64, rules []entities.HourRule) ([]entities.HourRule, error) {
	if err := s.checkWritable(ctx, locationID, actingUserID); err != nil {
		return nil, err
	}
	valid, err := schedule.ValidateRules(locationID, rules)
	if err != nil {
		return nil, err
	}
	saved, err := s.hoursRepo.Upsert(ctx, kind, locationID, valid)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, entities.NewLocationEvent(locationID, entities.LocationEventHoursUpdated,
		map[string]interface{}{"kind": string(kind)}))
	return saved, nil
}

// GetHolidays returns the holiday overrides of a location
func (s *HoursService) GetHolidays(ctx context.Context, locationID int64) ([]entities.HolidayOverride, error) {
	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return nil, err
	}
	return s.holidayRepo.ListByLocation(ctx, locationID)
}

// TodayStatus is the regular and delivery status of one location
type TodayStatus struct {
	HoursToday         entities.HoursToday `json:"hoursToday"`
	DeliveryHoursToday entities.HoursToday `json:"deliveryHoursToday"`
}

// GetHoursToday resolves whether a stored location is open right now
func (s *HoursService) GetHoursToday(ctx context.Context, locationID int64) (*TodayStatus, error) {
	row, err := s.locationRepo.GetByID(ctx, locationID, false)
	if err != nil {
		return nil, err
	}
	results, err := s.enricher.Enrich(ctx, []*entities.LocationRow{row})
	if err != nil {
		return nil, err
	}
	return &TodayStatus{
		HoursToday:         results[0].HoursToday,
		DeliveryHoursToday: results[0].DeliveryHoursToday,
	}, nil
}

// ListTimeSlots returns delivery time slots, optionally for one day
func (s *HoursService) ListTimeSlots(ctx context.Context, locationID int64, day string) ([]entities.DeliveryTimeSlot, error) {
	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return nil, err
	}
	if day != "" {
		if _, ok := weekdays[strings.ToLower(day)]; !ok {
			return nil, apperrors.InvalidTime()
		}
		return s.slotRepo.ListByLocationAndDay(ctx, locationID, dayName(day))
	}
	return s.slotRepo.ListByLocation(ctx, locationID)
}

// SaveTimeSlots validates and upserts delivery time slots
func (s *HoursService) SaveTimeSlots(ctx context.Context, locationID int64, actingUserID *int64, slots []entities.DeliveryTimeSlot) ([]entities.DeliveryTimeSlot, error) {
	if err := s.checkWritable(ctx, locationID, actingUserID); err != nil {
		return nil, err
	}
	normalized := make([]entities.DeliveryTimeSlot, 0, len(slots))
	seen := make(map[string]int, len(slots))
	for _, slot := range slots {
		dayNum, ok := weekdays[strings.ToLower(slot.Day)]
		if !ok {
			return nil, apperrors.InvalidTime()
		}
		if slot.MaxOrdersPerHour < 0 {
			return nil, apperrors.NewValidationError("maxOrdersPerHour must not be negative")
		}
		if strings.TrimSpace(slot.TimeSlot) == "" {
			return nil, apperrors.InvalidTime()
		}
		slot.LocationID = locationID
		slot.Day = dayName(slot.Day)
		slot.DayNum = dayNum

		key := slot.Day + "|" + slot.TimeSlot
		if i, ok := seen[key]; ok {
			normalized[i] = slot
			continue
		}
		seen[key] = len(normalized)
		normalized = append(normalized, slot)
	}
	return s.slotRepo.Upsert(ctx, locationID, normalized)
}

func (s *HoursService) checkWritable(ctx context.Context, locationID int64, actingUserID *int64) error {
	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return err
	}
	if actingUserID == nil {
		return nil
	}
	return ensureAssigned(ctx, s.assignments, *actingUserID, locationID)
}

func dayName(day string) string {
	return strings.ToUpper(day[:1]) + strings.ToLower(day[1:])
}
