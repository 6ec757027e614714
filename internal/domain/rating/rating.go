// Package rating derives the public rating of a location from its reviews.
package rating

import (
	"math"

	"github.com/isbx/locations/backend/internal/domain/entities"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const (
	MinRating = 0
	MaxRating = 5
)

// SQLExpression is the store-side equivalent of RoundHalfStar over AVG.
const SQLExpression = "ROUND(AVG(%s) * 2) / 2"

// Validate checks a single review score
func Validate(score int) error {
	if score < MinRating || score > MaxRating {
		return apperrors.InvalidRating()
	}
	return nil
}

// RoundHalfStar rounds an average to the nearest half star
func RoundHalfStar(avg float64) float64 {
	return math.Round(avg*2) / 2
}

// Summarize aggregates the live (non-deleted) reviews of one location
func Summarize(locationID int64, reviews []entities.LocationRating) entities.RatingSummary {
	summary := entities.RatingSummary{LocationID: locationID}
	total := 0
	for _, r := range reviews {
		if r.Deleted || r.LocationID != locationID {
			continue
		}
		total += r.Rating
		summary.RatingCount++
	}
	if summary.RatingCount > 0 {
		avg := RoundHalfStar(float64(total) / float64(summary.RatingCount))
		summary.Rating = &avg
	}
	return summary
}
