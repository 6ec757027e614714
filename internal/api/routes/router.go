package routes

import (
	"net/http"

	"github.com/isbx/locations/backend/internal/api/handlers"
	"github.com/isbx/locations/backend/internal/api/middleware"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	locationHandler *handlers.LocationHandler
	hoursHandler    *handlers.HoursHandler
	reviewHandler   *handlers.ReviewHandler
	checkInHandler  *handlers.CheckInHandler

	writeLimiter   *middleware.RateLimiter
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	locationHandler *handlers.LocationHandler,
	hoursHandler *handlers.HoursHandler,
	reviewHandler *handlers.ReviewHandler,
	checkInHandler *handlers.CheckInHandler,
	writeLimiter *middleware.RateLimiter,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		locationHandler: locationHandler,
		hoursHandler:    hoursHandler,
		reviewHandler:   reviewHandler,
		checkInHandler:  checkInHandler,

		writeLimiter:   writeLimiter,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Location endpoints
	r.mux.HandleFunc("GET /api/locations", r.locationHandler.SearchLocations)
	r.mux.HandleFunc("GET /api/locations/count", r.locationHandler.CountLocations)
	r.mux.HandleFunc("GET /api/locations/nearest", r.locationHandler.NearestLocation)
	r.mux.HandleFunc("GET /api/locations/{id}", r.locationHandler.GetLocation)
	r.mux.HandleFunc("POST /api/locations", r.locationHandler.CreateLocation)
	r.mux.HandleFunc("PUT /api/locations/{id}", r.locationHandler.UpdateLocation)
	r.mux.HandleFunc("DELETE /api/locations/{id}", r.locationHandler.DeleteLocation)
	r.mux.HandleFunc("PUT /api/organizations/{id}/off-hours", r.locationHandler.UpdateOrganizationOffHours)

	// Hours endpoints
	r.mux.HandleFunc("GET /api/locations/{id}/hours", r.hoursHandler.GetHours)
	r.mux.HandleFunc("POST /api/locations/{id}/hours", r.hoursHandler.SaveHours)
	r.mux.HandleFunc("GET /api/locations/{id}/hours/today", r.hoursHandler.GetHoursToday)
	r.mux.HandleFunc("GET /api/locations/{id}/delivery-hours", r.hoursHandler.GetDeliveryHours)
	r.mux.HandleFunc("POST /api/locations/{id}/delivery-hours", r.hoursHandler.SaveDeliveryHours)
	r.mux.HandleFunc("GET /api/locations/{id}/holidays", r.hoursHandler.GetHolidays)
	r.mux.HandleFunc("GET /api/locations/{id}/delivery-time-slots", r.hoursHandler.ListTimeSlots)
	r.mux.HandleFunc("POST /api/locations/{id}/delivery-time-slots", r.hoursHandler.SaveTimeSlots)

	// Review endpoints
	r.mux.HandleFunc("GET /api/locations/{id}/reviews", r.reviewHandler.ListReviews)
	r.mux.HandleFunc("POST /api/locations/{id}/reviews", r.writeLimiter.Wrap(r.reviewHandler.CreateReview))
	r.mux.HandleFunc("GET /api/locations/{id}/reviews/{reviewId}", r.reviewHandler.GetReview)
	r.mux.HandleFunc("PUT /api/locations/{id}/reviews/{reviewId}", r.reviewHandler.UpdateReview)

	// Mobile check-in endpoints
	r.mux.HandleFunc("POST /api/locations/mobile-check-in", r.writeLimiter.Wrap(r.checkInHandler.CheckIn))
	r.mux.HandleFunc("GET /api/mobile-check-in/{id}", r.checkInHandler.GetCheckIn)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so rejected and preflight responses also get CORS headers.
	var handler http.Handler = middleware.RecordRoute(r.mux)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
