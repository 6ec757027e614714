package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/rating"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// DefaultReviewSpamWindow is how long a user waits between reviews of the
// same location
const DefaultReviewSpamWindow = 30 * 24 * time.Hour

// ReviewListParams pages and filters the reviews of one location
type ReviewListParams struct {
	LocationID     int64
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
	Order          string
}

// ReviewService handles location reviews and rating summaries
type ReviewService struct {
	locationRepo repositories.LocationRepository
	reviewRepo   repositories.ReviewRepository
	publisher    *EventPublisher
	now          func() time.Time
	spamWindow   time.Duration
	defaultLimit int
}

// ReviewOption configures a ReviewService
type ReviewOption func(*ReviewService)

// WithReviewClock replaces time.Now
func WithReviewClock(now func() time.Time) ReviewOption {
	return func(s *ReviewService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSpamWindow overrides DefaultReviewSpamWindow
func WithSpamWindow(window time.Duration) ReviewOption {
	return func(s *ReviewService) {
		if window > 0 {
			s.spamWindow = window
		}
	}
}

// NewReviewService creates a new review service
func NewReviewService(
	locationRepo repositories.LocationRepository,
	reviewRepo repositories.ReviewRepository,
	publisher *EventPublisher,
	opts ...ReviewOption,
) *ReviewService {
	s := &ReviewService{
		locationRepo: locationRepo,
		reviewRepo:   reviewRepo,
		publisher:    publisher,
		now:          time.Now,
		spamWindow:   DefaultReviewSpamWindow,
		defaultLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a review. A user may review a location once per spam
// window unless disableInterval is set.
func (s *ReviewService) Create(ctx context.Context, review *entities.LocationRating, disableInterval bool) (*entities.LocationRating, error) {
	ctx, span := observability.StartSpan(ctx, "ReviewService.Create",
		attribute.Int64("location.id", review.LocationID),
	)
	defer span.End()

	if err := rating.Validate(review.Rating); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.GetByID(ctx, review.LocationID, false); err != nil {
		return nil, err
	}

	if !disableInterval {
		recent, err := s.reviewRepo.CountRecent(ctx, review.UserID, review.LocationID, s.now().Add(-s.spamWindow))
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		if recent > 0 {
			return nil, apperrors.AddReviewSpam()
		}
	}

	review.ID = 0
	review.Deleted = false
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.publisher.Publish(ctx, entities.NewLocationEvent(review.LocationID, entities.LocationEventReviewCreated,
		map[string]interface{}{"reviewId": review.ID, "rating": review.Rating}))
	return review, nil
}

// Update changes the score, text or deleted flag of a review
func (s *ReviewService) Update(ctx context.Context, review *entities.LocationRating) (*entities.LocationRating, error) {
	if err := rating.Validate(review.Rating); err != nil {
		return nil, err
	}
	if _, err := s.reviewRepo.GetByID(ctx, review.LocationID, review.ID); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Get returns a review of a location
func (s *ReviewService) Get(ctx context.Context, locationID, reviewID int64) (*entities.LocationRating, error) {
	return s.reviewRepo.GetByID(ctx, locationID, reviewID)
}

// List returns one page of reviews and the total match count. Newest first
// unless an order is given.
func (s *ReviewService) List(ctx context.Context, params ReviewListParams) ([]*entities.LocationRating, int, error) {
	order, err := ParseOrder(params.Order, reviewSortColumns)
	if err != nil {
		return nil, 0, err
	}
	if len(order) == 0 {
		order = []repositories.OrderTerm{{Column: repositories.SortByCreated, Direction: repositories.Descending}}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	offset, err := pageOffset(params.Page, limit)
	if err != nil {
		return nil, 0, err
	}

	return s.reviewRepo.List(ctx, repositories.ReviewQuery{
		LocationID:     params.LocationID,
		Search:         params.Search,
		IncludeDeleted: params.IncludeDeleted,
		Order:          withIDTiebreak(order),
		Limit:          limit,
		Offset:         offset,
	})
}

// Summary returns the half-star average and count of live reviews
func (s *ReviewService) Summary(ctx context.Context, locationID int64) (entities.RatingSummary, error) {
	if _, err := s.locationRepo.GetByID(ctx, locationID, false); err != nil {
		return entities.RatingSummary{}, err
	}
	return s.reviewRepo.Summary(ctx, locationID)
}
