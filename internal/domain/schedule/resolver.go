// Package schedule resolves weekly hour rules and holiday overrides into an
// "open right now" answer in a location's own timezone.
package schedule

import (
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

const dateLayout = "2006-01-02"

// DefaultDeliveryFormat is the display layout for delivery open/close times
const DefaultDeliveryFormat = "03:04 PM"

// Input is everything the resolver needs for one location
type Input struct {
	Timezone string
	Rules    []entities.HourRule
	Holidays []entities.HolidayOverride
	// AllowOffHours must already combine the location and organization flags.
	AllowOffHours bool
}

// Resolver computes today's hours. It is safe for concurrent use.
type Resolver struct {
	now            func() time.Time
	deliveryFormat string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithDeliveryFormat sets the layout used for delivery opensAt/closesAt
func WithDeliveryFormat(layout string) Option {
	return func(r *Resolver) {
		if layout != "" {
			r.deliveryFormat = layout
		}
	}
}

// NewResolver creates a resolver using the wall clock
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now, deliveryFormat: DefaultDeliveryFormat}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the resolver's current instant
func (r *Resolver) Now() time.Time {
	return r.now()
}

// HoursToday resolves regular service hours at the current instant
func (r *Resolver) HoursToday(in Input) entities.HoursToday {
	res, _ := r.resolve(in, func(t TimeOfDay) string { return t.String() })
	if res.Status == entities.HoursStatusClosed && in.AllowOffHours {
		res.Status = entities.HoursStatusOpen
		res.IsOpen = true
		res.IsOffHours = true
	}
	return res
}

// DeliveryHoursToday resolves delivery hours at the current instant.
// IsOffHours is set when delivery is running while regular service is
// closed, either through delivery-only hours or the off-hours override.
func (r *Resolver) DeliveryHoursToday(delivery Input, regularRules []entities.HourRule) entities.HoursToday {
	format := func(t TimeOfDay) string { return t.Format(r.deliveryFormat) }
	res, _ := r.resolve(delivery, format)
	if res.Status == entities.HoursStatusUnknown {
		return res
	}

	regular, _ := r.resolve(Input{
		Timezone: delivery.Timezone,
		Rules:    regularRules,
		Holidays: delivery.Holidays,
	}, format)

	switch {
	case res.IsOpen && !regular.IsOpen:
		res.IsOffHours = true
	case !res.IsOpen && delivery.AllowOffHours:
		res.Status = entities.HoursStatusOpen
		res.IsOpen = true
		res.IsOffHours = true
	}
	return res
}

// LocalDate returns the local calendar date of the current instant in tz
func (r *Resolver) LocalDate(tz string) (string, bool) {
	loc, ok := loadLocation(tz)
	if !ok {
		return "", false
	}
	return r.now().In(loc).Format(dateLayout), true
}

func (r *Resolver) resolve(in Input, format func(TimeOfDay) string) (entities.HoursToday, bool) {
	loc, ok := loadLocation(in.Timezone)
	if !ok {
		return entities.HoursToday{Status: entities.HoursStatusUnknown}, false
	}

	local := r.now().In(loc)
	day := int(local.Weekday())
	date := local.Format(dateLayout)
	nowTOD := TimeOfDayOf(local)

	var (
		isOpen    bool
		start     string
		end       string
		matched   bool
		isHoliday bool
	)
	for _, h := range in.Holidays {
		if h.Date == date {
			isOpen, start, end = h.IsOpen, h.StartTime, h.EndTime
			matched, isHoliday = true, true
			break
		}
	}
	if !matched {
		for _, rule := range in.Rules {
			if rule.DayOfWeek == day {
				isOpen, start, end = rule.IsOpen, rule.StartTime, rule.EndTime
				matched = true
				break
			}
		}
	}

	closed := entities.HoursToday{Status: entities.HoursStatusClosed, IsHoliday: isHoliday}
	if !matched || !isOpen {
		return closed, true
	}

	startTOD, err := ParseTimeOfDay(start)
	if err != nil {
		return closed, true
	}
	endTOD, err := ParseTimeOfDay(end)
	if err != nil || startTOD >= endTOD {
		return closed, true
	}

	res := entities.HoursToday{
		Status:    entities.HoursStatusClosed,
		OpensAt:   format(startTOD),
		ClosesAt:  format(endTOD),
		IsHoliday: isHoliday,
	}
	if nowTOD >= startTOD && nowTOD < endTOD {
		res.Status = entities.HoursStatusOpen
		res.IsOpen = true
	}
	return res, true
}

func loadLocation(tz string) (*time.Location, bool) {
	if tz == "" {
		return nil, false
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, false
	}
	return loc, true
}
