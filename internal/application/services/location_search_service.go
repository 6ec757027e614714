package services

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const (
	// DefaultSearchLimit applies when a caller gives no limit
	DefaultSearchLimit = 100

	// DefaultNearestRadiusMiles bounds the nearest-location lookup
	DefaultNearestRadiusMiles = 0.5
)

// SearchParams is a caller's location search request. Pointers distinguish
// an absent value from a zero value.
type SearchParams struct {
	Search                string
	MinLat                *float64
	MinLong               *float64
	MaxLat                *float64
	MaxLong               *float64
	OrganizationID        *int64
	AssignedUserID        *int64
	CouponID              *int64
	IncludeDeleted        bool
	DeliveryAvailableOnly bool
	Page                  int
	Limit                 int
	Order                 string
	StartFromLat          *float64
	StartFromLong         *float64
	MileRadius            *float64
}

// LocationSearchService answers location searches, lookups by id and the
// nearest-location query
type LocationSearchService struct {
	locationRepo       repositories.LocationRepository
	organizationRepo   repositories.OrganizationRepository
	enricher           *HoursEnricher
	defaultLimit       int
	nearestRadiusMiles float64
}

// SearchOption configures a LocationSearchService
type SearchOption func(*LocationSearchService)

// WithDefaultLimit overrides the page size used when none is requested
func WithDefaultLimit(limit int) SearchOption {
	return func(s *LocationSearchService) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithNearestRadiusMiles overrides the nearest-location radius
func WithNearestRadiusMiles(miles float64) SearchOption {
	return func(s *LocationSearchService) {
		if miles > 0 {
			s.nearestRadiusMiles = miles
		}
	}
}

// NewLocationSearchService creates a new search service
func NewLocationSearchService(
	locationRepo repositories.LocationRepository,
	organizationRepo repositories.OrganizationRepository,
	enricher *HoursEnricher,
	opts ...SearchOption,
) *LocationSearchService {
	s := &LocationSearchService{
		locationRepo:       locationRepo,
		organizationRepo:   organizationRepo,
		enricher:           enricher,
		defaultLimit:       DefaultSearchLimit,
		nearestRadiusMiles: DefaultNearestRadiusMiles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns a page of enriched locations and the total match count
func (s *LocationSearchService) Search(ctx context.Context, params SearchParams) ([]*entities.LocationSearchResult, int, error) {
	ctx, span := observability.StartSpan(ctx, "LocationSearchService.Search",
		attribute.String("search", params.Search),
		attribute.Bool("has_origin", params.StartFromLat != nil || params.StartFromLong != nil),
	)
	defer span.End()

	query, err := s.buildQuery(params)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.locationRepo.Search(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, 0, err
	}
	observability.RecordSearchResults(ctx, total)

	results, err := s.enricher.Enrich(ctx, rows)
	if err != nil {
		observability.RecordError(span, err)
		return nil, 0, err
	}
	return results, total, nil
}

// Count returns the number of live locations matching a free-text query.
// An empty query counts as zero.
func (s *LocationSearchService) Count(ctx context.Context, search string) (int, error) {
	if search == "" {
		return 0, nil
	}
	_, total, err := s.locationRepo.Search(ctx, repositories.LocationQuery{
		Search: search,
		Order:  []repositories.OrderTerm{{Column: repositories.SortByID, Direction: repositories.Ascending}},
		Limit:  1,
	})
	return total, err
}

// GetByID returns one enriched location with its organization
func (s *LocationSearchService) GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationSearchResult, error) {
	row, err := s.locationRepo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}

	results, err := s.enricher.Enrich(ctx, []*entities.LocationRow{row})
	if err != nil {
		return nil, err
	}
	result := results[0]

	if row.OrganizationID != nil {
		org, err := s.organizationRepo.GetByID(ctx, *row.OrganizationID)
		switch {
		case err == nil:
			result.Organization = org
		case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		default:
			return nil, err
		}
	}
	return result, nil
}

// Nearest returns the single best-ranked location within the nearest radius
// of (lat, long). organizationPosID narrows the search to one organization
// when it resolves; an unknown POS id leaves the search unfiltered.
func (s *LocationSearchService) Nearest(ctx context.Context, organizationPosID *string, lat, long *float64) (*entities.LocationSearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "LocationSearchService.Nearest")
	defer span.End()

	if lat == nil || long == nil {
		return nil, apperrors.LongLatRequired()
	}

	radius := s.nearestRadiusMiles
	params := SearchParams{
		StartFromLat:  lat,
		StartFromLong: long,
		MileRadius:    &radius,
		Limit:         1,
	}

	if organizationPosID != nil && *organizationPosID != "" {
		org, err := s.organizationRepo.GetByPosID(ctx, *organizationPosID)
		if err != nil {
			return nil, err
		}
		if org != nil {
			params.OrganizationID = &org.ID
		} else {
			observability.LoggerFromContext(ctx).Warn().
				Str("organization_pos_id", *organizationPosID).
				Msg("organization not found for POS id, searching all organizations")
		}
	}

	results, _, err := s.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperrors.NearestLocationNotFound()
	}
	return results[0], nil
}

func (s *LocationSearchService) buildQuery(params SearchParams) (repositories.LocationQuery, error) {
	if (params.StartFromLat == nil) != (params.StartFromLong == nil) {
		return repositories.LocationQuery{}, apperrors.InvalidStartingLatLong()
	}

	query := repositories.LocationQuery{
		Search:                params.Search,
		BoundingBox:           geo.NewBoundingBox(params.MinLat, params.MinLong, params.MaxLat, params.MaxLong),
		OrganizationID:        params.OrganizationID,
		AssignedUserID:        params.AssignedUserID,
		CouponID:              params.CouponID,
		IncludeDeleted:        params.IncludeDeleted,
		DeliveryAvailableOnly: params.DeliveryAvailableOnly,
	}

	if params.StartFromLat != nil {
		origin, err := geo.NewPoint(*params.StartFromLong, *params.StartFromLat)
		if err != nil {
			return repositories.LocationQuery{}, err
		}
		query.Origin = origin
		if r := params.MileRadius; r != nil {
			if math.IsNaN(*r) || math.IsInf(*r, 0) || *r < 0 {
				return repositories.LocationQuery{}, apperrors.InvalidRadius()
			}
			// a zero radius leaves the results unbounded
			if *r > 0 {
				query.MileRadius = r
			}
		}
	}

	order, err := ParseOrder(params.Order, locationSortColumns)
	if err != nil {
		return repositories.LocationQuery{}, err
	}
	if len(order) > 0 {
		query.Order = withIDTiebreak(order)
	} else {
		query.Order = defaultLocationOrder(query.Origin != nil)
	}

	query.Limit = params.Limit
	if query.Limit <= 0 {
		query.Limit = s.defaultLimit
	}
	offset, err := pageOffset(params.Page, query.Limit)
	if err != nil {
		return repositories.LocationQuery{}, err
	}
	query.Offset = offset

	return query, nil
}
