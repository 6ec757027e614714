package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/domain/entities"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const losAngeles = "America/Los_Angeles"

// Monday 4 March 2024 in Los Angeles (PST, UTC-8).
func laInstant(t *testing.T, hour, min, sec int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(losAngeles)
	require.NoError(t, err)
	return time.Date(2024, time.March, 4, hour, min, sec, 0, loc).UTC()
}

func frozen(at time.Time) Option {
	return WithClock(func() time.Time { return at })
}

func mondayRule(start, end string) entities.HourRule {
	return entities.HourRule{LocationID: 1, DayOfWeek: int(time.Monday), IsOpen: true, StartTime: start, EndTime: end}
}

func TestHoursToday_OpenAndClosedInLocalTime(t *testing.T) {
	in := Input{Timezone: losAngeles, Rules: []entities.HourRule{mondayRule("08:00", "17:55")}}

	open := NewResolver(frozen(laInstant(t, 13, 0, 0))).HoursToday(in)
	assert.Equal(t, entities.HoursStatusOpen, open.Status)
	assert.True(t, open.IsOpen)
	assert.Equal(t, "08:00:00", open.OpensAt)
	assert.Equal(t, "17:55:00", open.ClosesAt)

	late := NewResolver(frozen(laInstant(t, 23, 57, 30))).HoursToday(in)
	assert.Equal(t, entities.HoursStatusClosed, late.Status)
	assert.False(t, late.IsOpen)
	assert.Equal(t, "08:00:00", late.OpensAt)
	assert.Equal(t, "17:55:00", late.ClosesAt)
}

func TestHoursToday_IntervalIsHalfOpen(t *testing.T) {
	in := Input{Timezone: losAngeles, Rules: []entities.HourRule{mondayRule("08:00:00", "17:55:00")}}

	assert.True(t, NewResolver(frozen(laInstant(t, 8, 0, 0))).HoursToday(in).IsOpen)
	assert.True(t, NewResolver(frozen(laInstant(t, 17, 54, 59))).HoursToday(in).IsOpen)
	assert.False(t, NewResolver(frozen(laInstant(t, 17, 55, 0))).HoursToday(in).IsOpen)
	assert.False(t, NewResolver(frozen(laInstant(t, 7, 59, 59))).HoursToday(in).IsOpen)
}

func TestHoursToday_NoRuleOrClosedRule(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 13, 0, 0)))

	noRule := r.HoursToday(Input{Timezone: losAngeles, Rules: []entities.HourRule{
		{DayOfWeek: int(time.Tuesday), IsOpen: true, StartTime: "08:00", EndTime: "17:00"},
	}})
	assert.Equal(t, entities.HoursToday{Status: entities.HoursStatusClosed}, noRule)

	closedRule := r.HoursToday(Input{Timezone: losAngeles, Rules: []entities.HourRule{
		{DayOfWeek: int(time.Monday), IsOpen: false, StartTime: "08:00", EndTime: "17:00"},
	}})
	assert.False(t, closedRule.IsOpen)
	assert.Empty(t, closedRule.OpensAt)
}

func TestHoursToday_UnknownTimezone(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 13, 0, 0)))
	rules := []entities.HourRule{mondayRule("08:00", "17:55")}

	for _, tz := range []string{"", "Mars/Olympus_Mons"} {
		got := r.HoursToday(Input{Timezone: tz, Rules: rules, AllowOffHours: true})
		assert.Equal(t, entities.HoursStatusUnknown, got.Status, tz)
		assert.False(t, got.IsOpen, tz)
	}
}

func TestHoursToday_IndependentOfProcessZone(t *testing.T) {
	// 13:00 in Los Angeles is already Tuesday in Tokyo.
	at := laInstant(t, 13, 0, 0)
	r := NewResolver(frozen(at.In(time.FixedZone("JST", 9*3600))))

	got := r.HoursToday(Input{Timezone: losAngeles, Rules: []entities.HourRule{mondayRule("08:00", "17:55")}})
	assert.True(t, got.IsOpen)
}

func TestHoursToday_HolidayOverride(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 13, 0, 0)))
	rules := []entities.HourRule{mondayRule("08:00", "17:55")}

	closed := r.HoursToday(Input{
		Timezone: losAngeles,
		Rules:    rules,
		Holidays: []entities.HolidayOverride{{Date: "2024-03-04", Title: "Staff day"}},
	})
	assert.False(t, closed.IsOpen)
	assert.True(t, closed.IsHoliday)

	special := r.HoursToday(Input{
		Timezone: losAngeles,
		Rules:    rules,
		Holidays: []entities.HolidayOverride{{Date: "2024-03-04", IsOpen: true, StartTime: "10:00", EndTime: "12:00"}},
	})
	assert.False(t, special.IsOpen)
	assert.Equal(t, "10:00:00", special.OpensAt)
	assert.Equal(t, "12:00:00", special.ClosesAt)

	otherDay := r.HoursToday(Input{
		Timezone: losAngeles,
		Rules:    rules,
		Holidays: []entities.HolidayOverride{{Date: "2024-12-25"}},
	})
	assert.True(t, otherDay.IsOpen)
	assert.False(t, otherDay.IsHoliday)
}

func TestHoursToday_OffHoursOverride(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 23, 57, 30)))

	got := r.HoursToday(Input{
		Timezone:      losAngeles,
		Rules:         []entities.HourRule{mondayRule("08:00", "17:55")},
		AllowOffHours: true,
	})
	assert.True(t, got.IsOpen)
	assert.True(t, got.IsOffHours)
	assert.Equal(t, entities.HoursStatusOpen, got.Status)
}

func TestDeliveryHoursToday(t *testing.T) {
	regular := []entities.HourRule{mondayRule("08:00", "17:55")}
	delivery := Input{Timezone: losAngeles, Rules: []entities.HourRule{mondayRule("09:00", "22:00")}}

	during := NewResolver(frozen(laInstant(t, 13, 0, 0))).DeliveryHoursToday(delivery, regular)
	assert.True(t, during.IsOpen)
	assert.False(t, during.IsOffHours)
	assert.Equal(t, "09:00 AM", during.OpensAt)
	assert.Equal(t, "10:00 PM", during.ClosesAt)

	evening := NewResolver(frozen(laInstant(t, 19, 0, 0))).DeliveryHoursToday(delivery, regular)
	assert.True(t, evening.IsOpen)
	assert.True(t, evening.IsOffHours, "delivery-only window")

	late := NewResolver(frozen(laInstant(t, 23, 0, 0))).DeliveryHoursToday(delivery, regular)
	assert.False(t, late.IsOpen)
	assert.False(t, late.IsOffHours)

	delivery.AllowOffHours = true
	forced := NewResolver(frozen(laInstant(t, 23, 0, 0))).DeliveryHoursToday(delivery, regular)
	assert.True(t, forced.IsOpen)
	assert.True(t, forced.IsOffHours)
	assert.Equal(t, entities.HoursStatusOpen, forced.Status)
}

func TestDeliveryHoursToday_CustomFormat(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 13, 0, 0)), WithDeliveryFormat("15:04"))
	got := r.DeliveryHoursToday(Input{Timezone: losAngeles, Rules: []entities.HourRule{mondayRule("09:00", "22:00")}}, nil)
	assert.Equal(t, "09:00", got.OpensAt)
	assert.Equal(t, "22:00", got.ClosesAt)
}

func TestLocalDate(t *testing.T) {
	r := NewResolver(frozen(laInstant(t, 23, 57, 30)))

	date, ok := r.LocalDate(losAngeles)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-04", date)

	date, ok = r.LocalDate("UTC")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-05", date)

	_, ok = r.LocalDate("")
	assert.False(t, ok)
}

func TestValidateRules(t *testing.T) {
	rules, err := ValidateRules(7, []entities.HourRule{
		{DayOfWeek: 3, IsOpen: true, StartTime: "9:00", EndTime: "17:00"},
		{DayOfWeek: 0, IsOpen: false},
		{DayOfWeek: 3, IsOpen: true, StartTime: "10:00", EndTime: "18:30:15"},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 0, rules[0].DayOfWeek)
	assert.Equal(t, int64(7), rules[1].LocationID)
	assert.Equal(t, "10:00:00", rules[1].StartTime)
	assert.Equal(t, "18:30:15", rules[1].EndTime)

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 1, IsOpen: true, StartTime: "17:00", EndTime: "08:00"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTimeRange))

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 1, IsOpen: true, StartTime: "08:00", EndTime: "08:00"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTimeRange))

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 1, IsOpen: true, StartTime: "25:00", EndTime: "26:00"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTime))

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 7, IsOpen: false}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTime))

	closed, err := ValidateRules(7, []entities.HourRule{{DayOfWeek: 2, IsOpen: false, StartTime: "9:00"}})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", closed[0].StartTime)
	assert.Empty(t, closed[0].EndTime)

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 2, IsOpen: false, EndTime: "ab:cd"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTime))

	_, err = ValidateRules(7, []entities.HourRule{{DayOfWeek: 2, IsOpen: true, StartTime: "9:00"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTime))
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("13:05")
	require.NoError(t, err)
	assert.Equal(t, "13:05:00", tod.String())
	assert.Equal(t, "01:05 PM", tod.Format(DefaultDeliveryFormat))

	for _, bad := range []string{"", "13", "1:2:3:4", "ab:cd", "12:60", "123:00"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}
