package services

import (
	"math"
	"strings"

	"github.com/isbx/locations/backend/internal/domain/repositories"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

var locationSortColumns = map[string]repositories.SortColumn{
	"id":       repositories.SortByID,
	"name":     repositories.SortByName,
	"city":     repositories.SortByCity,
	"state":    repositories.SortByState,
	"priority": repositories.SortByPriority,
	"distance": repositories.SortByDistance,
	"rating":   repositories.SortByRating,
	"created":  repositories.SortByCreated,
	"modified": repositories.SortByModified,
}

var reviewSortColumns = map[string]repositories.SortColumn{
	"id":       repositories.SortByID,
	"rating":   repositories.SortByRating,
	"created":  repositories.SortByCreated,
	"modified": repositories.SortByModified,
}

// ParseOrder turns "name ASC, distance DESC" into order terms, rejecting any
// column outside allowed. An empty string yields no terms.
func ParseOrder(order string, allowed map[string]repositories.SortColumn) ([]repositories.OrderTerm, error) {
	if strings.TrimSpace(order) == "" {
		return nil, nil
	}

	var terms []repositories.OrderTerm
	for _, clause := range strings.Split(order, ",") {
		fields := strings.Fields(clause)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, apperrors.InvalidOrder(order)
		}
		column, ok := allowed[strings.ToLower(fields[0])]
		if !ok {
			return nil, apperrors.InvalidOrder(order)
		}
		term := repositories.OrderTerm{Column: column, Direction: repositories.Ascending}
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
			case "DESC":
				term.Direction = repositories.Descending
			default:
				return nil, apperrors.InvalidOrder(order)
			}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// defaultLocationOrder ranks by priority, then distance when an origin is
// known or name otherwise. id keeps pages stable.
func defaultLocationOrder(hasOrigin bool) []repositories.OrderTerm {
	terms := []repositories.OrderTerm{
		{Column: repositories.SortByPriority, Direction: repositories.Ascending},
	}
	if hasOrigin {
		terms = append(terms, repositories.OrderTerm{Column: repositories.SortByDistance, Direction: repositories.Ascending, NullsLast: true})
	}
	return append(terms,
		repositories.OrderTerm{Column: repositories.SortByName, Direction: repositories.Ascending, NullsLast: true},
		repositories.OrderTerm{Column: repositories.SortByID, Direction: repositories.Ascending},
	)
}

func withIDTiebreak(terms []repositories.OrderTerm) []repositories.OrderTerm {
	for _, t := range terms {
		if t.Column == repositories.SortByID {
			return terms
		}
	}
	return append(terms, repositories.OrderTerm{Column: repositories.SortByID, Direction: repositories.Ascending})
}

// pageOffset converts a zero-based page into a row offset. Negative pages
// read as the first page; a page whose offset overflows int is rejected.
func pageOffset(page, limit int) (int, error) {
	if page <= 0 {
		return 0, nil
	}
	if page > math.MaxInt/limit {
		return 0, apperrors.InvalidPage()
	}
	return page * limit, nil
}
