package handlers

import (
	"context"
	"net/http"

	"github.com/isbx/locations/backend/internal/application/services"
	"github.com/isbx/locations/backend/internal/domain/entities"
)

// ReviewManager reads and writes location reviews
type ReviewManager interface {
	Create(ctx context.Context, review *entities.LocationRating, disableInterval bool) (*entities.LocationRating, error)
	Update(ctx context.Context, review *entities.LocationRating) (*entities.LocationRating, error)
	Get(ctx context.Context, locationID, reviewID int64) (*entities.LocationRating, error)
	List(ctx context.Context, params services.ReviewListParams) ([]*entities.LocationRating, int, error)
}

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	reviews ReviewManager
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews ReviewManager) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// ReviewListResponse is the body of GET /api/locations/{id}/reviews
type ReviewListResponse struct {
	Reviews    []*entities.LocationRating `json:"reviews"`
	TotalCount int                        `json:"totalCount"`
}

type reviewRequest struct {
	UserID          int64  `json:"userId"`
	Rating          int    `json:"rating"`
	Review          string `json:"review"`
	Deleted         bool   `json:"deleted"`
	DisableInterval bool   `json:"disableInterval"`
}

// ListReviews handles GET /api/locations/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	params := services.ReviewListParams{
		LocationID:     id,
		Search:         r.URL.Query().Get("search"),
		IncludeDeleted: queryBool(r, "includeDeleted"),
		Order:          r.URL.Query().Get("order"),
	}
	if params.Page, err = queryInt(r, "page"); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if params.Limit, err = queryInt(r, "limit"); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	reviews, total, err := h.reviews.List(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*entities.LocationRating{}
	}
	respondWithJSON(w, http.StatusOK, ReviewListResponse{Reviews: reviews, TotalCount: total})
}

// CreateReview handles POST /api/locations/{id}/reviews. The reviewer is
// the acting user header when present, else userId from the body.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	userID, err := actingUserID(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if userID != nil {
		req.UserID = *userID
	}
	if req.UserID <= 0 {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}

	review := &entities.LocationRating{
		LocationID: id,
		UserID:     req.UserID,
		Rating:     req.Rating,
		Review:     req.Review,
	}
	created, err := h.reviews.Create(r.Context(), review, req.DisableInterval || queryBool(r, "disableInterval"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// GetReview handles GET /api/locations/{id}/reviews/{reviewId}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review, err := h.reviews.Get(r.Context(), id, reviewID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// UpdateReview handles PUT /api/locations/{id}/reviews/{reviewId}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	reviewID, err := pathID(r, "reviewId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	updated, err := h.reviews.Update(r.Context(), &entities.LocationRating{
		ID:         reviewID,
		LocationID: id,
		Rating:     req.Rating,
		Review:     req.Review,
		Deleted:    req.Deleted,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}
