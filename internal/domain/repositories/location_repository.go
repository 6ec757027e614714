package repositories

import (
	"context"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
)

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	// Search returns one page of filtered, ranked rows and the total number
	// of rows matching the filters before pagination.
	Search(ctx context.Context, query LocationQuery) ([]*entities.LocationRow, int, error)

	// GetByID retrieves a location with its rating summary
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationRow, error)

	// Create inserts a location and sets its ID and timestamps
	Create(ctx context.Context, location *entities.Location) error

	// Update overwrites the mutable fields of a location
	Update(ctx context.Context, location *entities.Location) error

	// SoftDelete marks a location as deleted
	SoftDelete(ctx context.Context, id int64) error

	// SetAllowOffHoursByOrganization updates every live location of an
	// organization and returns the affected ids
	SetAllowOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error)

	// ListMissingTimezone returns live locations that have coordinates but
	// no timezone, ordered by id and starting after afterID
	ListMissingTimezone(ctx context.Context, afterID int64, limit int) ([]*entities.Location, error)

	// SetTimezone stores the timezone of one location
	SetTimezone(ctx context.Context, id int64, timezone string) error
}

// LocationQuery is a validated search request. Ordering has already been
// resolved into explicit terms; adapters apply them in sequence.
type LocationQuery struct {
	Search                string
	BoundingBox           *geo.BoundingBox
	OrganizationID        *int64
	AssignedUserID        *int64
	CouponID              *int64
	IncludeDeleted        bool
	DeliveryAvailableOnly bool
	Origin                *geo.Point
	MileRadius            *float64
	Order                 []OrderTerm
	Limit                 int
	Offset                int
}

// SortColumn is a column a caller may order results by
type SortColumn string

const (
	SortByID       SortColumn = "id"
	SortByName     SortColumn = "name"
	SortByCity     SortColumn = "city"
	SortByState    SortColumn = "state"
	SortByPriority SortColumn = "priority"
	SortByDistance SortColumn = "distance"
	SortByRating   SortColumn = "rating"
	SortByCreated  SortColumn = "created"
	SortByModified SortColumn = "modified"
)

// SortDirection is ASC or DESC
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// OrderTerm is one ORDER BY entry
type OrderTerm struct {
	Column    SortColumn
	Direction SortDirection
	NullsLast bool
}

// OrganizationRepository defines read access to organizations
type OrganizationRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Organization, error)

	// GetByPosID returns nil without error when no organization carries the id
	GetByPosID(ctx context.Context, posID string) (*entities.Organization, error)
}

// UserLocationRepository defines access to the user/location membership relation
type UserLocationRepository interface {
	IsAssigned(ctx context.Context, userID, locationID int64) (bool, error)
}
