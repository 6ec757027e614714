package entities

import "time"

// HoursKind distinguishes regular service hours from delivery hours
type HoursKind string

const (
	HoursKindRegular  HoursKind = "regular"
	HoursKindDelivery HoursKind = "delivery"
)

// HourRule is a weekly open/closed interval for one day of the week.
// DayOfWeek runs 0..6 with 0 as Sunday. Times are local wall-clock "HH:MM:SS".
type HourRule struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"locationId" db:"location_id"`
	DayOfWeek  int       `json:"dayOfWeek" db:"day_of_week"`
	IsOpen     bool      `json:"isOpen" db:"is_open"`
	StartTime  string    `json:"startTime" db:"start_time"`
	EndTime    string    `json:"endTime" db:"end_time"`
	Created    time.Time `json:"created" db:"created"`
	Modified   time.Time `json:"modified" db:"modified"`
}

// HolidayOverride replaces the weekly rule on one local calendar date
type HolidayOverride struct {
	ID         int64  `json:"id" db:"id"`
	LocationID int64  `json:"locationId" db:"location_id"`
	Title      string `json:"title,omitempty" db:"title"`
	// Date is the local calendar date, "2006-01-02".
	Date      string `json:"date" db:"date"`
	IsOpen    bool   `json:"isOpen" db:"is_open"`
	StartTime string `json:"startTime,omitempty" db:"start_time"`
	EndTime   string `json:"endTime,omitempty" db:"end_time"`
}

// DeliveryTimeSlot caps delivery orders for a slot on a given day
type DeliveryTimeSlot struct {
	ID               int64  `json:"id" db:"id"`
	LocationID       int64  `json:"locationId" db:"location_id"`
	Day              string `json:"day" db:"day"`
	DayNum           int    `json:"dayNum" db:"day_num"`
	TimeSlot         string `json:"timeSlot" db:"time_slot"`
	MaxOrdersPerHour int    `json:"maxOrdersPerHour" db:"max_orders_per_hour"`
}

// HoursStatus is the outcome of resolving a schedule at an instant
type HoursStatus string

const (
	HoursStatusOpen    HoursStatus = "open"
	HoursStatusClosed  HoursStatus = "closed"
	HoursStatusUnknown HoursStatus = "unknown"
)

// HoursToday describes whether a location is open right now and, when a
// rule applies today, the interval it is open for.
type HoursToday struct {
	Status     HoursStatus `json:"status"`
	IsOpen     bool        `json:"isOpen"`
	OpensAt    string      `json:"opensAt,omitempty"`
	ClosesAt   string      `json:"closesAt,omitempty"`
	IsOffHours bool        `json:"isOffHours"`
	IsHoliday  bool        `json:"isHoliday,omitempty"`
}
