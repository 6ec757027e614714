package handlers

import (
	"context"
	"net/http"

	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/entities"
)

// HoursManager reads and writes schedules of a location
type HoursManager interface {
	GetHours(ctx context.Context, kind entities.HoursKind, locationID int64) ([]entities.HourRule, error)
	SaveHours(ctx context.Context, kind entities.HoursKind, locationID int64, actingUserID *int64, rules []entities.HourRule) ([]entities.HourRule, error)
	GetHolidays(ctx context.Context, locationID int64) ([]entities.HolidayOverride, error)
	GetHoursToday(ctx context.Context, locationID int64) (*services.TodayStatus, error)
	ListTimeSlots(ctx context.Context, locationID int64, day string) ([]entities.DeliveryTimeSlot, error)
	SaveTimeSlots(ctx context.Context, locationID int64, actingUserID *int64, slots []entities.DeliveryTimeSlot) ([]entities.DeliveryTimeSlot, error)
}

// HoursHandler handles hours, holidays and delivery time slot requests
type HoursHandler struct {
	hours HoursManager
}

// NewHoursHandler creates a new hours handler
func NewHoursHandler(hours HoursManager) *HoursHandler {
	return &HoursHandler{hours: hours}
}

// GetHours handles GET /api/locations/{id}/hours
func (h *HoursHandler) GetHours(w http.ResponseWriter, r *http.Request) {
	h.getRules(w, r, entities.HoursKindRegular)
}

// SaveHours handles POST /api/locations/{id}/hours
func (h *HoursHandler) SaveHours(w http.ResponseWriter, r *http.Request) {
	h.saveRules(w, r, entities.HoursKindRegular)
}

// GetDeliveryHours handles GET /api/locations/{id}/delivery-hours
func (h *HoursHandler) GetDeliveryHours(w http.ResponseWriter, r *http.Request) {
	h.getRules(w, r, entities.HoursKindDelivery)
}

// SaveDeliveryHours handles POST /api/locations/{id}/delivery-hours
func (h *HoursHandler) SaveDeliveryHours(w http.ResponseWriter, r *http.Request) {
	h.saveRules(w, r, entities.HoursKindDelivery)
}

func (h *HoursHandler) getRules(w http.ResponseWriter, r *http.Request, kind entities.HoursKind) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	rules, err := h.hours.GetHours(r.Context(), kind, id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rules)
}

func (h *HoursHandler) saveRules(w http.ResponseWriter, r *http.Request, kind entities.HoursKind) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	userID, err := actingUserID(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var rules []entities.HourRule
	if err := decodeJSON(r, &rules); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	saved, err := h.hours.SaveHours(r.Context(), kind, id, userID, rules)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

// GetHoursToday handles GET /api/locations/{id}/hours/today
func (h *HoursHandler) GetHoursToday(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status, err := h.hours.GetHoursToday(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// GetHolidays handles GET /api/locations/{id}/holidays
func (h *HoursHandler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	holidays, err := h.hours.GetHolidays(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, holidays)
}

// ListTimeSlots handles GET /api/locations/{id}/delivery-time-slots
func (h *HoursHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	slots, err := h.hours.ListTimeSlots(r.Context(), id, r.URL.Query().Get("day"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, slots)
}

// SaveTimeSlots handles POST /api/locations/{id}/delivery-time-slots
func (h *HoursHandler) SaveTimeSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	userID, err := actingUserID(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var slots []entities.DeliveryTimeSlot
	if err := decodeJSON(r, &slots); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	saved, err := h.hours.SaveTimeSlots(r.Context(), id, userID, slots)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}
