package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

var hoursTables = map[entities.HoursKind]string{
	entities.HoursKindRegular:  "location_hours",
	entities.HoursKindDelivery: "location_delivery_hours",
}

const (
	holidayTable  = "location_holiday"
	timeSlotTable = "location_delivery_time_slot"
)

// HoursAdapter implements the HoursRepository interface for both regular
// and delivery hours
type HoursAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHoursAdapter creates a new hours adapter
func NewHoursAdapter(client *postgres.Client) repositories.HoursRepository {
	return &HoursAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func hoursTable(kind entities.HoursKind) (string, error) {
	table, ok := hoursTables[kind]
	if !ok {
		return "", apperrors.NewValidationError("unknown hours kind " + string(kind))
	}
	return table, nil
}

func (a *HoursAdapter) selectRules(table string) *goqu.SelectDataset {
	return a.db.From(table).
		Select(
			"id", "location_id", "day_of_week", "is_open",
			goqu.L(`COALESCE("start_time"::text, '')`).As("start_time"),
			goqu.L(`COALESCE("end_time"::text, '')`).As("end_time"),
			"created", "modified",
		).
		Order(goqu.I("location_id").Asc(), goqu.I("day_of_week").Asc())
}

// ListByLocation returns the rules of one location sorted by day
func (a *HoursAdapter) ListByLocation(ctx context.Context, kind entities.HoursKind, locationID int64) ([]entities.HourRule, error) {
	table, err := hoursTable(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := a.selectRules(table).Where(goqu.Ex{"location_id": locationID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rules := []entities.HourRule{}
	if err := a.client.X().SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list hours", err)
	}
	return rules, nil
}

// ListByLocations batch-loads rules keyed by location id
func (a *HoursAdapter) ListByLocations(ctx context.Context, kind entities.HoursKind, locationIDs []int64) (map[int64][]entities.HourRule, error) {
	defer observability.RecordDBQuery(ctx, "hours.batch", time.Now())

	table, err := hoursTable(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]entities.HourRule, len(locationIDs))
	if len(locationIDs) == 0 {
		return out, nil
	}

	query, args, err := a.selectRules(table).
		Where(goqu.L(`"location_id" = ANY(?)`, pq.Array(locationIDs))).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rules []entities.HourRule
	if err := a.client.X().SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load hours", err)
	}
	for _, rule := range rules {
		out[rule.LocationID] = append(out[rule.LocationID], rule)
	}
	return out, nil
}

// Upsert writes rules keyed by (location, day of week) in one statement
func (a *HoursAdapter) Upsert(ctx context.Context, kind entities.HoursKind, locationID int64, rules []entities.HourRule) ([]entities.HourRule, error) {
	table, err := hoursTable(kind)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return a.ListByLocation(ctx, kind, locationID)
	}

	rows := make([]interface{}, len(rules))
	for i, rule := range rules {
		rows[i] = goqu.Record{
			"location_id": locationID,
			"day_of_week": rule.DayOfWeek,
			"is_open":     rule.IsOpen,
			"start_time":  nullString(rule.StartTime),
			"end_time":    nullString(rule.EndTime),
			"created":     goqu.L("NOW()"),
			"modified":    goqu.L("NOW()"),
		}
	}

	query, args, err := a.db.Insert(table).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("location_id, day_of_week", goqu.Record{
			"is_open":    goqu.L("EXCLUDED.is_open"),
			"start_time": goqu.L("EXCLUDED.start_time"),
			"end_time":   goqu.L("EXCLUDED.end_time"),
			"modified":   goqu.L("NOW()"),
		})).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to save hours", err)
	}
	return a.ListByLocation(ctx, kind, locationID)
}

// HolidayAdapter implements the HolidayRepository interface
type HolidayAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHolidayAdapter creates a new holiday adapter
func NewHolidayAdapter(client *postgres.Client) repositories.HolidayRepository {
	return &HolidayAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *HolidayAdapter) selectHolidays() *goqu.SelectDataset {
	return a.db.From(holidayTable).
		Select(
			"id", "location_id",
			goqu.COALESCE(goqu.C("title"), "").As("title"),
			goqu.L(`to_char("date", 'YYYY-MM-DD')`).As("date"),
			"is_open",
			goqu.L(`COALESCE("start_time"::text, '')`).As("start_time"),
			goqu.L(`COALESCE("end_time"::text, '')`).As("end_time"),
		).
		Order(goqu.I("location_id").Asc(), goqu.I("date").Asc())
}

// ListByLocation returns holidays ordered by date
func (a *HolidayAdapter) ListByLocation(ctx context.Context, locationID int64) ([]entities.HolidayOverride, error) {
	query, args, err := a.selectHolidays().Where(goqu.Ex{"location_id": locationID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	holidays := []entities.HolidayOverride{}
	if err := a.client.X().SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list holidays", err)
	}
	return holidays, nil
}

// ListByLocations batch-loads holidays keyed by location id
func (a *HolidayAdapter) ListByLocations(ctx context.Context, locationIDs []int64) (map[int64][]entities.HolidayOverride, error) {
	defer observability.RecordDBQuery(ctx, "holidays.batch", time.Now())

	out := make(map[int64][]entities.HolidayOverride, len(locationIDs))
	if len(locationIDs) == 0 {
		return out, nil
	}

	query, args, err := a.selectHolidays().
		Where(goqu.L(`"location_id" = ANY(?)`, pq.Array(locationIDs))).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var holidays []entities.HolidayOverride
	if err := a.client.X().SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load holidays", err)
	}
	for _, h := range holidays {
		out[h.LocationID] = append(out[h.LocationID], h)
	}
	return out, nil
}

// DeliveryTimeSlotAdapter implements the DeliveryTimeSlotRepository interface
type DeliveryTimeSlotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDeliveryTimeSlotAdapter creates a new time slot adapter
func NewDeliveryTimeSlotAdapter(client *postgres.Client) repositories.DeliveryTimeSlotRepository {
	return &DeliveryTimeSlotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *DeliveryTimeSlotAdapter) list(ctx context.Context, where goqu.Ex) ([]entities.DeliveryTimeSlot, error) {
	query, args, err := a.db.From(timeSlotTable).
		Select("id", "location_id", "day", "day_num", "time_slot", "max_orders_per_hour").
		Where(where).
		Order(goqu.I("day_num").Asc(), goqu.I("time_slot").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	slots := []entities.DeliveryTimeSlot{}
	if err := a.client.X().SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list delivery time slots", err)
	}
	return slots, nil
}

// ListByLocation returns slots ordered by day number
func (a *DeliveryTimeSlotAdapter) ListByLocation(ctx context.Context, locationID int64) ([]entities.DeliveryTimeSlot, error) {
	return a.list(ctx, goqu.Ex{"location_id": locationID})
}

// ListByLocationAndDay returns one day's slots
func (a *DeliveryTimeSlotAdapter) ListByLocationAndDay(ctx context.Context, locationID int64, day string) ([]entities.DeliveryTimeSlot, error) {
	return a.list(ctx, goqu.Ex{"location_id": locationID, "day": day})
}

// Upsert writes slots keyed by (location, day, time slot)
func (a *DeliveryTimeSlotAdapter) Upsert(ctx context.Context, locationID int64, slots []entities.DeliveryTimeSlot) ([]entities.DeliveryTimeSlot, error) {
	if len(slots) == 0 {
		return a.ListByLocation(ctx, locationID)
	}

	rows := make([]interface{}, len(slots))
	for i, slot := range slots {
		rows[i] = goqu.Record{
			"location_id":         locationID,
			"day":                 slot.Day,
			"day_num":             slot.DayNum,
			"time_slot":           slot.TimeSlot,
			"max_orders_per_hour": slot.MaxOrdersPerHour,
		}
	}

	query, args, err := a.db.Insert(timeSlotTable).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("location_id, day, time_slot", goqu.Record{
			"day_num":             goqu.L("EXCLUDED.day_num"),
			"max_orders_per_hour": goqu.L("EXCLUDED.max_orders_per_hour"),
		})).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to save delivery time slots", err)
	}
	return a.ListByLocation(ctx, locationID)
}
