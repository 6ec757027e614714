package entities

import (
	"time"

	"github.com/isbx/locations/backend/internal/domain/geo"
)

// Location is a storefront belonging to an organization. It is the aggregate
// root for hours, holidays, delivery rules and ratings.
type Location struct {
	ID                  int64      `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Description         string     `json:"description,omitempty" db:"description"`
	AddressLine1        string     `json:"addressLine1,omitempty" db:"address_line1"`
	AddressLine2        string     `json:"addressLine2,omitempty" db:"address_line2"`
	City                string     `json:"city,omitempty" db:"city"`
	State               string     `json:"state,omitempty" db:"state"`
	PostalCode          string     `json:"postalCode,omitempty" db:"postal_code"`
	PhoneNumber         string     `json:"phoneNumber,omitempty" db:"phone_number"`
	Coordinates         *geo.Point `json:"coordinates,omitempty" db:"-"`
	Timezone            string     `json:"timezone,omitempty" db:"timezone"`
	OrganizationID      *int64     `json:"organizationId,omitempty" db:"organization_id"`
	Priority            int        `json:"priority" db:"priority"`
	IsDeliveryAvailable bool       `json:"isDeliveryAvailable" db:"is_delivery_available"`
	DeliveryMileRadius  *float64   `json:"deliveryMileRadius,omitempty" db:"delivery_mile_radius"`
	DeliveryFee         *float64   `json:"deliveryFee,omitempty" db:"delivery_fee"`
	AllowOffHours       bool       `json:"allowOffHours" db:"allow_off_hours"`
	Deleted             bool       `json:"deleted" db:"deleted"`
	Created             time.Time  `json:"created" db:"created"`
	Modified            time.Time  `json:"modified" db:"modified"`
}

// Organization owns a set of locations
type Organization struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	PosID         string    `json:"posId,omitempty" db:"pos_id"`
	AllowOffHours bool      `json:"allowOffHours" db:"allow_off_hours"`
	Deleted       bool      `json:"deleted" db:"deleted"`
	Created       time.Time `json:"created" db:"created"`
	Modified      time.Time `json:"modified" db:"modified"`
}

// UserLocation assigns a user to a location
type UserLocation struct {
	UserID     int64 `json:"userId" db:"user_id"`
	LocationID int64 `json:"locationId" db:"location_id"`
	Deleted    bool  `json:"deleted" db:"deleted"`
}
