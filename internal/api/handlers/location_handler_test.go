package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/api/handlers"
	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/entities"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

type MockLocationSearcher struct {
	mock.Mock
}

func (m *MockLocationSearcher) Search(ctx context.Context, params services.SearchParams) ([]*entities.LocationSearchResult, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.LocationSearchResult), args.Int(1), args.Error(2)
}

func (m *MockLocationSearcher) Count(ctx context.Context, search string) (int, error) {
	args := m.Called(ctx, search)
	return args.Int(0), args.Error(1)
}

func (m *MockLocationSearcher) GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationSearchResult, error) {
	args := m.Called(ctx, id, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationSearchResult), args.Error(1)
}

func (m *MockLocationSearcher) Nearest(ctx context.Context, organizationPosID *string, lat, long *float64) (*entities.LocationSearchResult, error) {
	args := m.Called(ctx, organizationPosID, lat, long)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationSearchResult), args.Error(1)
}

type MockLocationManager struct {
	mock.Mock
}

func (m *MockLocationManager) Create(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationSearchResult), args.Error(1)
}

func (m *MockLocationManager) Update(ctx context.Context, location *entities.Location) (*entities.LocationSearchResult, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationSearchResult), args.Error(1)
}

func (m *MockLocationManager) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLocationManager) UpdateOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error) {
	args := m.Called(ctx, organizationID, allow)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// serve routes req through a mux so path values are populated
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestLocationHandler_SearchLocations_ParsesQuery(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))

	rating := 4.5
	searcher.On("Search", mock.Anything, mock.MatchedBy(func(p services.SearchParams) bool {
		return p.Search == "pharmacy" &&
			p.StartFromLat != nil && *p.StartFromLat == 34.020575 &&
			p.StartFromLong != nil && *p.StartFromLong == -118.424138 &&
			p.MileRadius != nil && *p.MileRadius == 2 &&
			p.OrganizationID != nil && *p.OrganizationID == 9 &&
			p.MinLat == nil &&
			p.DeliveryAvailableOnly &&
			p.Page == 1 && p.Limit == 20 &&
			p.Order == "name ASC"
	})).Return([]*entities.LocationSearchResult{
		{Location: entities.Location{ID: 2, Name: "CVS Pharmacy"}, Rating: &rating, RatingCount: 3},
	}, 41, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/locations?search=pharmacy&startFromLat=34.020575&startFromLong=-118.424138&mileRadius=2"+
			"&organizationId=9&deliveryAvailableOnly=true&page=1&limit=20&order=name+ASC", nil)
	rec := serve("GET /api/locations", handler.SearchLocations, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handlers.SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 41, body.TotalCount)
	require.Len(t, body.Locations, 1)
	assert.Equal(t, "CVS Pharmacy", body.Locations[0].Name)
	searcher.AssertExpectations(t)
}

func TestLocationHandler_SearchLocations_RejectsBadNumber(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))

	req := httptest.NewRequest(http.MethodGet, "/api/locations?startFromLat=north", nil)
	rec := serve("GET /api/locations", handler.SearchLocations, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestLocationHandler_SearchLocations_LocalizesErrors(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, 0, apperrors.InvalidStartingLatLong())

	req := httptest.NewRequest(http.MethodGet, "/api/locations?startFromLat=34", nil)
	req.Header.Set("Accept-Language", "es-PR,en;q=0.8")
	rec := serve("GET /api/locations", handler.SearchLocations, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "invalidStartingLatLong", body.Code)
	assert.True(t, strings.HasPrefix(body.Error, "Las coordenadas de inicio"))
}

func TestLocationHandler_InternalErrorsAreOpaque(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))
	searcher.On("Count", mock.Anything, "x").Return(0, apperrors.NewInternalError("failed to count locations", errors.New("connection reset")))

	req := httptest.NewRequest(http.MethodGet, "/api/locations/count?search=x", nil)
	rec := serve("GET /api/locations/count", handler.CountLocations, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Error)
}

func TestLocationHandler_NearestLocation(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))

	searcher.On("Nearest", mock.Anything,
		mock.MatchedBy(func(pos *string) bool { return pos != nil && *pos == "pos-pharmacy" }),
		mock.MatchedBy(func(lat *float64) bool { return lat != nil && *lat == 34.02 }),
		mock.MatchedBy(func(long *float64) bool { return long != nil && *long == -118.42 }),
	).Return(&entities.LocationSearchResult{Location: entities.Location{ID: 2, Name: "CVS Pharmacy"}}, nil)
	searcher.On("Nearest", mock.Anything, (*string)(nil), mock.Anything, mock.Anything).
		Return(nil, apperrors.NearestLocationNotFound())

	req := httptest.NewRequest(http.MethodGet, "/api/locations/nearest?organizationPosId=pos-pharmacy&lat=34.02&long=-118.42", nil)
	rec := serve("GET /api/locations/nearest", handler.NearestLocation, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var loc entities.LocationSearchResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loc))
	assert.Equal(t, "CVS Pharmacy", loc.Name)

	req = httptest.NewRequest(http.MethodGet, "/api/locations/nearest?lat=0&long=0", nil)
	rec = serve("GET /api/locations/nearest", handler.NearestLocation, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nearestLocationNotFound", decodeError(t, rec).Code)
}

func TestLocationHandler_GetLocation(t *testing.T) {
	searcher := new(MockLocationSearcher)
	handler := handlers.NewLocationHandler(searcher, new(MockLocationManager))
	searcher.On("GetByID", mock.Anything, int64(3), true).Return(&entities.LocationSearchResult{Location: entities.Location{ID: 3, Deleted: true}}, nil)
	searcher.On("GetByID", mock.Anything, int64(4), false).Return(nil, apperrors.LocationNotFound())

	rec := serve("GET /api/locations/{id}", handler.GetLocation,
		httptest.NewRequest(http.MethodGet, "/api/locations/3?includeDeleted=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve("GET /api/locations/{id}", handler.GetLocation,
		httptest.NewRequest(http.MethodGet, "/api/locations/4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve("GET /api/locations/{id}", handler.GetLocation,
		httptest.NewRequest(http.MethodGet, "/api/locations/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocationHandler_CreateLocation_LegacyLongLat(t *testing.T) {
	manager := new(MockLocationManager)
	handler := handlers.NewLocationHandler(new(MockLocationSearcher), manager)

	manager.On("Create", mock.Anything, mock.MatchedBy(func(l *entities.Location) bool {
		return l.ID == 0 && l.Name == "ISBX" && l.Coordinates != nil &&
			l.Coordinates.Longitude == -118.424138 && l.Coordinates.Latitude == 34.020575
	})).Return(&entities.LocationSearchResult{Location: entities.Location{ID: 12, Name: "ISBX"}}, nil)

	body := `{"id": 99, "name": "ISBX", "longLat": "(-118.424138,34.020575)"}`
	rec := serve("POST /api/locations", handler.CreateLocation,
		httptest.NewRequest(http.MethodPost, "/api/locations", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	manager.AssertExpectations(t)
}

func TestLocationHandler_CreateLocation_BadLongLat(t *testing.T) {
	manager := new(MockLocationManager)
	handler := handlers.NewLocationHandler(new(MockLocationSearcher), manager)

	for _, longLat := range []string{"-118.4,34.0", "(200,10)", "(a,b)"} {
		body := `{"name": "ISBX", "longLat": "` + longLat + `"}`
		rec := serve("POST /api/locations", handler.CreateLocation,
			httptest.NewRequest(http.MethodPost, "/api/locations", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, longLat)
		assert.Equal(t, "invalidCoordinates", decodeError(t, rec).Code, longLat)
	}
	manager.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLocationHandler_UpdateLocation_PolicyDenied(t *testing.T) {
	manager := new(MockLocationManager)
	handler := handlers.NewLocationHandler(new(MockLocationSearcher), manager)
	manager.On("Update", mock.Anything, mock.MatchedBy(func(l *entities.Location) bool {
		return l.ID == 5 && l.AllowOffHours
	})).Return(nil, apperrors.OrganizationOffHoursDisabled())

	rec := serve("PUT /api/locations/{id}", handler.UpdateLocation,
		httptest.NewRequest(http.MethodPut, "/api/locations/5", strings.NewReader(`{"name": "CVS", "allowOffHours": true}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "organizationOffHoursDisabled", decodeError(t, rec).Code)
}

func TestLocationHandler_DeleteLocation(t *testing.T) {
	manager := new(MockLocationManager)
	handler := handlers.NewLocationHandler(new(MockLocationSearcher), manager)
	manager.On("Remove", mock.Anything, int64(5)).Return(nil)
	manager.On("Remove", mock.Anything, int64(6)).Return(apperrors.LocationNotFound())

	rec := serve("DELETE /api/locations/{id}", handler.DeleteLocation,
		httptest.NewRequest(http.MethodDelete, "/api/locations/5", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve("DELETE /api/locations/{id}", handler.DeleteLocation,
		httptest.NewRequest(http.MethodDelete, "/api/locations/6", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocationHandler_UpdateOrganizationOffHours(t *testing.T) {
	manager := new(MockLocationManager)
	handler := handlers.NewLocationHandler(new(MockLocationSearcher), manager)
	manager.On("UpdateOffHoursByOrganization", mock.Anything, int64(1), false).Return([]int64{2, 7}, nil)

	rec := serve("PUT /api/organizations/{id}/off-hours", handler.UpdateOrganizationOffHours,
		httptest.NewRequest(http.MethodPut, "/api/organizations/1/off-hours", strings.NewReader(`{"allowOffHours": false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		LocationIDs []int64 `json:"locationIds"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []int64{2, 7}, body.LocationIDs)

	rec = serve("PUT /api/organizations/{id}/off-hours", handler.UpdateOrganizationOffHours,
		httptest.NewRequest(http.MethodPut, "/api/organizations/1/off-hours", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
