package entities

import "time"

// LocationRating is a user's review of a location
type LocationRating struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"locationId" db:"location_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Rating     int       `json:"rating" db:"rating"`
	Review     string    `json:"review,omitempty" db:"review"`
	Deleted    bool      `json:"deleted" db:"deleted"`
	Created    time.Time `json:"created" db:"created"`
	Modified   time.Time `json:"modified" db:"modified"`
}

// RatingSummary is the derived half-star average and count of live reviews
type RatingSummary struct {
	LocationID  int64    `json:"locationId" db:"location_id"`
	Rating      *float64 `json:"rating" db:"rating"`
	RatingCount int      `json:"ratingCount" db:"rating_count"`
}
