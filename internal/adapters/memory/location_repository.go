package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/rating"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// LocationRepository implements repositories.LocationRepository
type LocationRepository struct {
	s *Store
}

var _ repositories.LocationRepository = (*LocationRepository)(nil)

// Search filters, ranks and paginates locations
func (r *LocationRepository) Search(ctx context.Context, q repositories.LocationQuery) ([]*entities.LocationRow, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	var rows []*entities.LocationRow
	for _, loc := range r.s.locations {
		if !q.IncludeDeleted && loc.Deleted {
			continue
		}
		if needle != "" && !matchesText(loc, needle) {
			continue
		}
		if q.BoundingBox != nil && !q.BoundingBox.Contains(loc.Coordinates) {
			continue
		}
		if q.OrganizationID != nil && (loc.OrganizationID == nil || *loc.OrganizationID != *q.OrganizationID) {
			continue
		}
		if q.AssignedUserID != nil && !r.s.isAssigned(*q.AssignedUserID, loc.ID) {
			continue
		}
		if q.CouponID != nil && !r.s.coupons[*q.CouponID][loc.ID] {
			continue
		}
		if q.DeliveryAvailableOnly && !loc.IsDeliveryAvailable {
			continue
		}

		row := r.s.row(loc, q.Origin)
		if q.MileRadius != nil {
			if row.Distance == nil || !geo.WithinRadiusMiles(*row.Distance, *q.MileRadius) {
				continue
			}
		}
		rows = append(rows, row)
	}

	sortRows(rows, q.Order)

	total := len(rows)
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return rows[start:end], total, nil
}

// GetByID retrieves a location with its rating summary
func (r *LocationRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	loc, ok := r.s.locations[id]
	if !ok || (loc.Deleted && !includeDeleted) {
		return nil, apperrors.LocationNotFound()
	}
	return r.s.row(loc, nil), nil
}

// Create inserts a location
func (r *LocationRepository) Create(ctx context.Context, location *entities.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	location.ID = r.s.nextID("location")
	now := r.s.now()
	location.Created, location.Modified = now, now
	stored := *location
	r.s.locations[location.ID] = &stored
	return nil
}

// Update overwrites a location
func (r *LocationRepository) Update(ctx context.Context, location *entities.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.locations[location.ID]
	if !ok {
		return apperrors.LocationNotFound()
	}
	location.Created = existing.Created
	location.Modified = r.s.now()
	stored := *location
	r.s.locations[location.ID] = &stored
	return nil
}

// SoftDelete marks a location as deleted
func (r *LocationRepository) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loc, ok := r.s.locations[id]
	if !ok {
		return apperrors.LocationNotFound()
	}
	loc.Deleted = true
	loc.Modified = r.s.now()
	return nil
}

// SetAllowOffHoursByOrganization updates every live location of an organization
func (r *LocationRepository) SetAllowOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var ids []int64
	for id, loc := range r.s.locations {
		if loc.Deleted || loc.OrganizationID == nil || *loc.OrganizationID != organizationID {
			continue
		}
		loc.AllowOffHours = allow
		loc.Modified = r.s.now()
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListMissingTimezone returns located live rows without a timezone
func (r *LocationRepository) ListMissingTimezone(ctx context.Context, afterID int64, limit int) ([]*entities.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entities.Location
	for id, loc := range r.s.locations {
		if id <= afterID || loc.Deleted || loc.Coordinates == nil || loc.Timezone != "" {
			continue
		}
		cp := *loc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetTimezone stores the timezone of one location
func (r *LocationRepository) SetTimezone(ctx context.Context, id int64, timezone string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loc, ok := r.s.locations[id]
	if !ok {
		return apperrors.LocationNotFound()
	}
	loc.Timezone = timezone
	loc.Modified = r.s.now()
	return nil
}

func (s *Store) row(loc *entities.Location, origin *geo.Point) *entities.LocationRow {
	row := &entities.LocationRow{Location: *loc}
	if loc.OrganizationID != nil {
		if org, ok := s.organizations[*loc.OrganizationID]; ok {
			row.OrganizationAllowOffHours = org.AllowOffHours
		}
	}
	if d, ok := geo.DistanceKm(origin, loc.Coordinates); ok {
		row.Distance = &d
	}

	var reviews []entities.LocationRating
	for _, rv := range s.reviews {
		if rv.LocationID == loc.ID {
			reviews = append(reviews, *rv)
		}
	}
	summary := rating.Summarize(loc.ID, reviews)
	row.Rating, row.RatingCount = summary.Rating, summary.RatingCount
	return row
}

func matchesText(loc *entities.Location, needle string) bool {
	for _, field := range []string{loc.Name, loc.City, loc.AddressLine1, loc.AddressLine2} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func sortRows(rows []*entities.LocationRow, order []repositories.OrderTerm) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range order {
			if c := compareRows(rows[i], rows[j], term); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func compareRows(a, b *entities.LocationRow, term repositories.OrderTerm) int {
	switch term.Column {
	case repositories.SortByID:
		return directed(compareInt(a.ID, b.ID), term)
	case repositories.SortByName:
		return directed(compareText(a.Name, b.Name), term)
	case repositories.SortByCity:
		return directed(compareText(a.City, b.City), term)
	case repositories.SortByState:
		return directed(compareText(a.State, b.State), term)
	case repositories.SortByPriority:
		return directed(compareInt(int64(a.Priority), int64(b.Priority)), term)
	case repositories.SortByDistance:
		return compareNullable(a.Distance, b.Distance, term)
	case repositories.SortByRating:
		return compareNullable(a.Rating, b.Rating, term)
	case repositories.SortByCreated:
		return directed(compareInt(a.Created.UnixNano(), b.Created.UnixNano()), term)
	case repositories.SortByModified:
		return directed(compareInt(a.Modified.UnixNano(), b.Modified.UnixNano()), term)
	}
	return 0
}

// compareNullable follows Postgres: NULL sorts as larger than any value
// unless NULLS LAST forces it to the end in both directions.
func compareNullable(a, b *float64, term repositories.OrderTerm) int {
	nullsLast := term.NullsLast || term.Direction != repositories.Descending
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if nullsLast {
			return 1
		}
		return -1
	case b == nil:
		if nullsLast {
			return -1
		}
		return 1
	}
	c := 0
	if *a < *b {
		c = -1
	} else if *a > *b {
		c = 1
	}
	return directed(c, term)
}

func directed(c int, term repositories.OrderTerm) int {
	if term.Direction == repositories.Descending {
		return -c
	}
	return c
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// OrganizationRepository implements repositories.OrganizationRepository
type OrganizationRepository struct {
	s *Store
}

// GetByID returns an organization
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*entities.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	org, ok := r.s.organizations[id]
	if !ok {
		return nil, apperrors.OrganizationNotFound()
	}
	out := *org
	return &out, nil
}

// GetByPosID returns nil when no live organization carries posID
func (r *OrganizationRepository) GetByPosID(ctx context.Context, posID string) (*entities.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, org := range r.s.organizations {
		if org.PosID == posID && !org.Deleted {
			out := *org
			return &out, nil
		}
	}
	return nil, nil
}

// UserLocationRepository implements repositories.UserLocationRepository
type UserLocationRepository struct {
	s *Store
}

// IsAssigned reports a live membership
func (r *UserLocationRepository) IsAssigned(ctx context.Context, userID, locationID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.isAssigned(userID, locationID), nil
}
