package repositories

import (
	"context"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

// ReviewRepository defines the interface for location reviews
type ReviewRepository interface {
	// CountRecent counts live reviews by a user for a location created after since
	CountRecent(ctx context.Context, userID, locationID int64, since time.Time) (int, error)

	Create(ctx context.Context, review *entities.LocationRating) error
	Update(ctx context.Context, review *entities.LocationRating) error

	// GetByID returns a review only when it belongs to the given location
	GetByID(ctx context.Context, locationID, reviewID int64) (*entities.LocationRating, error)

	List(ctx context.Context, query ReviewQuery) ([]*entities.LocationRating, int, error)

	Summary(ctx context.Context, locationID int64) (entities.RatingSummary, error)
}

// ReviewQuery filters the reviews of one location
type ReviewQuery struct {
	LocationID     int64
	Search         string
	IncludeDeleted bool
	Order          []OrderTerm
	Limit          int
	Offset         int
}

// CheckInRepository defines the interface for mobile check-ins
type CheckInRepository interface {
	// LatestByMobile returns the newest check-in for a number with its
	// location timezone, or nil when there is none
	LatestByMobile(ctx context.Context, mobileNumber string) (*entities.MobileCheckIn, error)

	Create(ctx context.Context, checkIn *entities.MobileCheckIn) error

	GetByID(ctx context.Context, id int64) (*entities.MobileCheckIn, error)
}
