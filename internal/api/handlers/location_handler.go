package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
)

// LocationSearcher is the read side of the location API
type LocationSearcher interface {
	Search(ctx context.Context, params services.SearchParams) ([]*entities.LocationSearchResult, int, error)
	Count(ctx context.Context, search string) (int, error)
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationSearchResult, error)
	Nearest(ctx context.Context, organizationPosID *string, lat, long *float64) (*entities.LocationSearchResult, error)
}

// LocationManager is the write side of the location API
type LocationManager interface {
	Create(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error)
	Update(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error)
	Remove(ctx context.Context, id int64) error
	UpdateOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error)
}

// LocationHandler handles location-related HTTP requests
type LocationHandler struct {
	search    LocationSearcher
	locations LocationManager
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(search LocationSearcher, locations LocationManager) *LocationHandler {
	return &LocationHandler{
		search:    search,
		locations: locations,
	}
}

// SearchResponse is the body of GET /api/locations
type SearchResponse struct {
	Locations  []*entities.LocationSearchResult `json:"locations"`
	TotalCount int                              `json:"totalCount"`
}

// locationRequest accepts coordinates as an object or as the legacy
// "(lon,lat)" longLat string
type locationRequest struct {
	entities.Location
	LongLat *string `json:"longLat,omitempty"`
}

func (req *locationRequest) toEntity() (*entities.Location, error) {
	location := req.Location
	if req.LongLat != nil {
		if strings.TrimSpace(*req.LongLat) == "" {
			location.Coordinates = nil
		} else {
			point, err := geo.ParsePoint(*req.LongLat)
			if err != nil {
				return nil, err
			}
			location.Coordinates = point
		}
	}
	return &location, nil
}

func parseSearchParams(r *http.Request) (services.SearchParams, error) {
	q := r.URL.Query()
	params := services.SearchParams{
		Search:                q.Get("search"),
		Order:                 q.Get("order"),
		IncludeDeleted:        queryBool(r, "includeDeleted"),
		DeliveryAvailableOnly: queryBool(r, "deliveryAvailableOnly"),
	}

	var err error
	floats := []struct {
		name string
		dst  **float64
	}{
		{"minLat", &params.MinLat},
		{"minLong", &params.MinLong},
		{"maxLat", &params.MaxLat},
		{"maxLong", &params.MaxLong},
		{"startFromLat", &params.StartFromLat},
		{"startFromLong", &params.StartFromLong},
		{"mileRadius", &params.MileRadius},
	}
	for _, f := range floats {
		if *f.dst, err = queryFloat(r, f.name); err != nil {
			return params, err
		}
	}

	ids := []struct {
		name string
		dst  **int64
	}{
		{"organizationId", &params.OrganizationID},
		{"assignedUserId", &params.AssignedUserID},
		{"couponId", &params.CouponID},
	}
	for _, f := range ids {
		if *f.dst, err = queryInt64(r, f.name); err != nil {
			return params, err
		}
	}

	if params.Page, err = queryInt(r, "page"); err != nil {
		return params, err
	}
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		return params, err
	}
	return params, nil
}

// SearchLocations handles GET /api/locations
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	results, total, err := h.search.Search(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SearchResponse{Locations: results, TotalCount: total})
}

// CountLocations handles GET /api/locations/count
func (h *LocationHandler) CountLocations(w http.ResponseWriter, r *http.Request) {
	total, err := h.search.Count(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"count": total})
}

// NearestLocation handles GET /api/locations/nearest
func (h *LocationHandler) NearestLocation(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	long, err := queryFloat(r, "long")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var posID *string
	if v := strings.TrimSpace(r.URL.Query().Get("organizationPosId")); v != "" {
		posID = &v
	}

	location, err := h.search.Nearest(r.Context(), posID, lat, long)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}

// GetLocation handles GET /api/locations/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.search.GetByID(r.Context(), id, queryBool(r, "includeDeleted"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}

// CreateLocation handles POST /api/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location, err := req.toEntity()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location.ID = 0

	created, err := h.locations.Create(r.Context(), location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateLocation handles PUT /api/locations/{id}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location, err := req.toEntity()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	location.ID = id

	updated, err := h.locations.Update(r.Context(), location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DeleteLocation handles DELETE /api/locations/{id}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.locations.Remove(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateOrganizationOffHours handles PUT /api/organizations/{id}/off-hours
func (h *LocationHandler) UpdateOrganizationOffHours(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req struct {
		AllowOffHours *bool `json:"allowOffHours"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.AllowOffHours == nil {
		respondWithError(w, http.StatusBadRequest, "allowOffHours is required")
		return
	}

	ids, err := h.locations.UpdateOffHoursByOrganization(r.Context(), id, *req.AllowOffHours)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"locationIds": ids})
}
