package handlers

import (
	"context"
	"net/http"

	"github.com/isbx/locations/backend/internal/domain/entities"
)

// CheckInRecorder records mobile check-ins
type CheckInRecorder interface {
	CheckIn(ctx context.Context, locationID int64, mobileNumber string) (*entities.MobileCheckIn, error)
	GetCheckIn(ctx context.Context, id int64) (*entities.MobileCheckIn, error)
}

// CheckInHandler handles mobile check-in requests
type CheckInHandler struct {
	checkIns CheckInRecorder
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkIns CheckInRecorder) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns}
}

// CheckIn handles POST /api/locations/mobile-check-in
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID   int64  `json:"locationId"`
		MobileNumber string `json:"mobileNumber"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.LocationID <= 0 {
		respondWithError(w, http.StatusBadRequest, "locationId is required")
		return
	}

	checkIn, err := h.checkIns.CheckIn(r.Context(), req.LocationID, req.MobileNumber)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, checkIn)
}

// GetCheckIn handles GET /api/mobile-check-in/{id}
func (h *CheckInHandler) GetCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	checkIn, err := h.checkIns.GetCheckIn(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, checkIn)
}
