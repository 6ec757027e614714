package repositories

import (
	"context"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

// HoursRepository stores weekly rules for both regular and delivery hours
type HoursRepository interface {
	// ListByLocation returns the rules of one location sorted by day
	ListByLocation(ctx context.Context, kind entities.HoursKind, locationID int64) ([]entities.HourRule, error)

	// ListByLocations batch-loads rules keyed by location id
	ListByLocations(ctx context.Context, kind entities.HoursKind, locationIDs []int64) (map[int64][]entities.HourRule, error)

	// Upsert writes rules keyed by (location, day of week) and returns the stored set
	Upsert(ctx context.Context, kind entities.HoursKind, locationID int64, rules []entities.HourRule) ([]entities.HourRule, error)
}

// HolidayRepository reads holiday overrides
type HolidayRepository interface {
	ListByLocation(ctx context.Context, locationID int64) ([]entities.HolidayOverride, error)
	ListByLocations(ctx context.Context, locationIDs []int64) (map[int64][]entities.HolidayOverride, error)
}

// DeliveryTimeSlotRepository stores delivery capacity per slot
type DeliveryTimeSlotRepository interface {
	ListByLocation(ctx context.Context, locationID int64) ([]entities.DeliveryTimeSlot, error)
	ListByLocationAndDay(ctx context.Context, locationID int64, day string) ([]entities.DeliveryTimeSlot, error)

	// Upsert writes slots keyed by (location, day, time slot)
	Upsert(ctx context.Context, locationID int64, slots []entities.DeliveryTimeSlot) ([]entities.DeliveryTimeSlot, error)
}
