package services

import (
	"context"

	"github.com/isbx/locations/backend/internal/application/loaders"
	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/domain/schedule"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// HoursEnricher performs the second read phase of a search: it batch-loads
// hours, delivery hours and holidays for every row, then resolves today's
// status for each location.
type HoursEnricher struct {
	hoursRepo   repositories.HoursRepository
	holidayRepo repositories.HolidayRepository
	resolver    *schedule.Resolver
}

// NewHoursEnricher creates an enricher
func NewHoursEnricher(hoursRepo repositories.HoursRepository, holidayRepo repositories.HolidayRepository, resolver *schedule.Resolver) *HoursEnricher {
	return &HoursEnricher{
		hoursRepo:   hoursRepo,
		holidayRepo: holidayRepo,
		resolver:    resolver,
	}
}

// Enrich converts base rows into search results
func (e *HoursEnricher) Enrich(ctx context.Context, rows []*entities.LocationRow) ([]*entities.LocationSearchResult, error) {
	if len(rows) == 0 {
		return []*entities.LocationSearchResult{}, nil
	}

	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(e.hoursRepo, e.holidayRepo)
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	hoursThunk := l.HoursLoader.LoadMany(ctx, ids)
	deliveryThunk := l.DeliveryHoursLoader.LoadMany(ctx, ids)
	holidayThunk := l.HolidayLoader.LoadMany(ctx, ids)

	hours, errs := hoursThunk()
	if err := firstError(errs); err != nil {
		return nil, apperrors.NewInternalError("failed to load location hours", err)
	}
	deliveryHours, errs := deliveryThunk()
	if err := firstError(errs); err != nil {
		return nil, apperrors.NewInternalError("failed to load delivery hours", err)
	}
	holidays, errs := holidayThunk()
	if err := firstError(errs); err != nil {
		return nil, apperrors.NewInternalError("failed to load location holidays", err)
	}

	results := make([]*entities.LocationSearchResult, len(rows))
	for i, row := range rows {
		results[i] = e.build(row, hours[i], deliveryHours[i], holidays[i])
	}
	return results, nil
}

func (e *HoursEnricher) build(row *entities.LocationRow, hours, deliveryHours []entities.HourRule, holidays []entities.HolidayOverride) *entities.LocationSearchResult {
	if hours == nil {
		hours = []entities.HourRule{}
	}
	if deliveryHours == nil {
		deliveryHours = []entities.HourRule{}
	}
	allowOffHours := row.AllowOffHours && row.OrganizationAllowOffHours

	return &entities.LocationSearchResult{
		Location:      row.Location,
		Rating:        row.Rating,
		RatingCount:   row.RatingCount,
		Distance:      row.Distance,
		Hours:         hours,
		DeliveryHours: deliveryHours,
		Holidays:      holidays,
		HoursToday: e.resolver.HoursToday(schedule.Input{
			Timezone:      row.Timezone,
			Rules:         hours,
			Holidays:      holidays,
			AllowOffHours: allowOffHours,
		}),
		DeliveryHoursToday: e.resolver.DeliveryHoursToday(schedule.Input{
			Timezone:      row.Timezone,
			Rules:         deliveryHours,
			Holidays:      holidays,
			AllowOffHours: allowOffHours && row.IsDeliveryAvailable,
		}, hours),
	}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
