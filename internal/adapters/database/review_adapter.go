package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/rating"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const reviewColumns = `id, location_id, user_id, rating, COALESCE(review, '') AS review, deleted, created, modified`

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CountRecent counts live reviews by a user for a location created after since
func (a *ReviewAdapter) CountRecent(ctx context.Context, userID, locationID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM location_rating
		WHERE user_id = $1 AND location_id = $2 AND deleted = false AND created > $3
	`

	var n int
	if err := a.client.X().GetContext(ctx, &n, query, userID, locationID, since); err != nil {
		return 0, apperrors.NewInternalError("failed to count recent reviews", err)
	}
	return n, nil
}

// Create inserts a review
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.LocationRating) error {
	query := `
		INSERT INTO location_rating (location_id, user_id, rating, review, deleted, created, modified)
		VALUES ($1, $2, $3, NULLIF($4, ''), false, NOW(), NOW())
		RETURNING id, created, modified
	`

	err := a.client.X().QueryRowxContext(ctx, query,
		review.LocationID,
		review.UserID,
		review.Rating,
		review.Review,
	).Scan(&review.ID, &review.Created, &review.Modified)
	if err != nil {
		return apperrors.NewInternalError("failed to create review", err)
	}
	return nil
}

// Update overwrites the score, text and deleted flag of a review
func (a *ReviewAdapter) Update(ctx context.Context, review *entities.LocationRating) error {
	query := `
		UPDATE location_rating SET rating = $3, review = NULLIF($4, ''), deleted = $5, modified = NOW()
		WHERE id = $1 AND location_id = $2
		RETURNING ` + reviewColumns

	err := a.client.X().GetContext(ctx, review, query,
		review.ID,
		review.LocationID,
		review.Rating,
		review.Review,
		review.Deleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ReviewNotFound()
	}
	if err != nil {
		return apperrors.NewInternalError("failed to update review", err)
	}
	return nil
}

// GetByID returns a review only when it belongs to locationID
func (a *ReviewAdapter) GetByID(ctx context.Context, locationID, reviewID int64) (*entities.LocationRating, error) {
	query := `SELECT ` + reviewColumns + ` FROM location_rating WHERE id = $1 AND location_id = $2`

	review := &entities.LocationRating{}
	err := a.client.X().GetContext(ctx, review, query, reviewID, locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ReviewNotFound()
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}
	return review, nil
}

// List filters and pages the reviews of one location
func (a *ReviewAdapter) List(ctx context.Context, q repositories.ReviewQuery) ([]*entities.LocationRating, int, error) {
	defer observability.RecordDBQuery(ctx, "review.list", time.Now())

	where := []exp.Expression{goqu.C("location_id").Eq(q.LocationID)}
	if !q.IncludeDeleted {
		where = append(where, goqu.C("deleted").IsFalse())
	}
	if needle := strings.TrimSpace(q.Search); needle != "" {
		where = append(where, goqu.C("review").ILike("%"+escapeLike(needle)+"%"))
	}

	countSQL, countArgs, err := a.db.From(ratingTable).Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}
	var total int
	if err := a.client.X().GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count reviews", err)
	}

	order := make([]exp.OrderedExpression, len(q.Order))
	for i, term := range q.Order {
		col := goqu.C(string(term.Column))
		order[i] = col.Asc()
		if term.Direction == repositories.Descending {
			order[i] = col.Desc()
		}
	}

	ds := a.db.From(ratingTable).
		Select(goqu.L(reviewColumns)).
		Where(where...).
		Order(order...)
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build query", err)
	}

	reviews := []*entities.LocationRating{}
	if err := a.client.X().SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list reviews", err)
	}
	return reviews, total, nil
}

// Summary derives the half-star rating of one location from live reviews
func (a *ReviewAdapter) Summary(ctx context.Context, locationID int64) (entities.RatingSummary, error) {
	query := fmt.Sprintf(`
		SELECT $1::bigint AS location_id, %s AS rating, COUNT(*) AS rating_count
		FROM location_rating
		WHERE location_id = $1 AND deleted = false
	`, fmt.Sprintf(rating.SQLExpression, "rating"))

	var summary entities.RatingSummary
	if err := a.client.X().GetContext(ctx, &summary, query, locationID); err != nil {
		return entities.RatingSummary{}, apperrors.NewInternalError("failed to summarize reviews", err)
	}
	return summary, nil
}

// CheckInAdapter implements the CheckInRepository interface
type CheckInAdapter struct {
	client *postgres.Client
}

// NewCheckInAdapter creates a new check-in adapter
func NewCheckInAdapter(client *postgres.Client) repositories.CheckInRepository {
	return &CheckInAdapter{client: client}
}

// LatestByMobile returns the newest check-in for a number with its location timezone
func (a *CheckInAdapter) LatestByMobile(ctx context.Context, mobileNumber string) (*entities.MobileCheckIn, error) {
	query := `
		SELECT c.id, c.location_id, c.mobile_number, c.created, c.modified,
			COALESCE(l.timezone, '') AS location_timezone
		FROM mobile_check_in c
		LEFT JOIN location l ON l.id = c.location_id
		WHERE c.mobile_number = $1
		ORDER BY c.created DESC, c.id DESC
		LIMIT 1
	`

	checkIn := &entities.MobileCheckIn{}
	err := a.client.X().GetContext(ctx, checkIn, query, mobileNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get latest check-in", err)
	}
	return checkIn, nil
}

// Create inserts a check-in
func (a *CheckInAdapter) Create(ctx context.Context, checkIn *entities.MobileCheckIn) error {
	query := `
		INSERT INTO mobile_check_in (location_id, mobile_number, created, modified)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created, modified
	`

	err := a.client.X().QueryRowxContext(ctx, query, checkIn.LocationID, checkIn.MobileNumber).
		Scan(&checkIn.ID, &checkIn.Created, &checkIn.Modified)
	if err != nil {
		return apperrors.NewInternalError("failed to create check-in", err)
	}
	return nil
}

// GetByID returns a check-in
func (a *CheckInAdapter) GetByID(ctx context.Context, id int64) (*entities.MobileCheckIn, error) {
	query := `
		SELECT id, location_id, mobile_number, created, modified, '' AS location_timezone
		FROM mobile_check_in WHERE id = $1
	`

	checkIn := &entities.MobileCheckIn{}
	err := a.client.X().GetContext(ctx, checkIn, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.CheckInNotFound()
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get check-in", err)
	}
	return checkIn, nil
}
