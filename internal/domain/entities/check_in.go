package entities

import "time"

// MobileCheckIn records a customer arriving at a location
type MobileCheckIn struct {
	ID           int64     `json:"id" db:"id"`
	LocationID   int64     `json:"locationId" db:"location_id"`
	MobileNumber string    `json:"mobileNumber" db:"mobile_number"`
	Created      time.Time `json:"created" db:"created"`
	Modified     time.Time `json:"modified" db:"modified"`
	// LocationTimezone is joined from the location when reading the latest check-in.
	LocationTimezone string `json:"-" db:"location_timezone"`
}
