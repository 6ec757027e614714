package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/rating"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// ReviewRepository implements repositories.ReviewRepository
type ReviewRepository struct {
	s *Store
}

var _ repositories.ReviewRepository = (*ReviewRepository)(nil)

// CountRecent counts live reviews after since
func (r *ReviewRepository) CountRecent(ctx context.Context, userID, locationID int64, since time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, rv := range r.s.reviews {
		if rv.UserID == userID && rv.LocationID == locationID && !rv.Deleted && rv.Created.After(since) {
			n++
		}
	}
	return n, nil
}

// Create inserts a review
func (r *ReviewRepository) Create(ctx context.Context, review *entities.LocationRating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review.ID = r.s.nextID("review")
	now := r.s.now()
	review.Created, review.Modified = now, now
	stored := *review
	r.s.reviews[review.ID] = &stored
	return nil
}

// Update overwrites rating, text and deleted flag
func (r *ReviewRepository) Update(ctx context.Context, review *entities.LocationRating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.reviews[review.ID]
	if !ok || existing.LocationID != review.LocationID {
		return apperrors.ReviewNotFound()
	}
	existing.Rating = review.Rating
	existing.Review = review.Review
	existing.Deleted = review.Deleted
	existing.Modified = r.s.now()
	*review = *existing
	return nil
}

// GetByID returns a review under a location
func (r *ReviewRepository) GetByID(ctx context.Context, locationID, reviewID int64) (*entities.LocationRating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rv, ok := r.s.reviews[reviewID]
	if !ok || rv.LocationID != locationID {
		return nil, apperrors.ReviewNotFound()
	}
	out := *rv
	return &out, nil
}

// List filters and pages reviews of one location
func (r *ReviewRepository) List(ctx context.Context, q repositories.ReviewQuery) ([]*entities.LocationRating, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	var out []*entities.LocationRating
	for _, rv := range r.s.reviews {
		if rv.LocationID != q.LocationID || (rv.Deleted && !q.IncludeDeleted) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rv.Review), needle) {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, term := range q.Order {
			var c int
			switch term.Column {
			case repositories.SortByRating:
				c = compareInt(int64(out[i].Rating), int64(out[j].Rating))
			case repositories.SortByModified:
				c = compareInt(out[i].Modified.UnixNano(), out[j].Modified.UnixNano())
			case repositories.SortByID:
				c = compareInt(out[i].ID, out[j].ID)
			default:
				c = compareInt(out[i].Created.UnixNano(), out[j].Created.UnixNano())
			}
			if c = directed(c, term); c != 0 {
				return c < 0
			}
		}
		return false
	})

	total := len(out)
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
	return out[start:end], total, nil
}

// Summary derives the rating of one location
func (r *ReviewRepository) Summary(ctx context.Context, locationID int64) (entities.RatingSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var reviews []entities.LocationRating
	for _, rv := range r.s.reviews {
		if rv.LocationID == locationID {
			reviews = append(reviews, *rv)
		}
	}
	return rating.Summarize(locationID, reviews), nil
}

// CheckInRepository implements repositories.CheckInRepository
type CheckInRepository struct {
	s *Store
}

var _ repositories.CheckInRepository = (*CheckInRepository)(nil)

// LatestByMobile returns the newest check-in for a number
func (r *CheckInRepository) LatestByMobile(ctx context.Context, mobileNumber string) (*entities.MobileCheckIn, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *entities.MobileCheckIn
	for _, c := range r.s.checkIns {
		if c.MobileNumber != mobileNumber {
			continue
		}
		if latest == nil || c.Created.After(latest.Created) || (c.Created.Equal(latest.Created) && c.ID > latest.ID) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	if loc, ok := r.s.locations[out.LocationID]; ok {
		out.LocationTimezone = loc.Timezone
	}
	return &out, nil
}

// Create inserts a check-in
func (r *CheckInRepository) Create(ctx context.Context, checkIn *entities.MobileCheckIn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	checkIn.ID = r.s.nextID("check_in")
	now := r.s.now()
	checkIn.Created, checkIn.Modified = now, now
	stored := *checkIn
	r.s.checkIns[checkIn.ID] = &stored
	return nil
}

// GetByID returns a check-in
func (r *CheckInRepository) GetByID(ctx context.Context, id int64) (*entities.MobileCheckIn, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.checkIns[id]
	if !ok {
		return nil, apperrors.CheckInNotFound()
	}
	out := *c
	return &out, nil
}
