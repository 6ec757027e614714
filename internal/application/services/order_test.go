package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isbx/locations/backend/internal/domain/repositories"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

func TestParseOrder(t *testing.T) {
	terms, err := ParseOrder("name ASC, distance desc", locationSortColumns)
	require.NoError(t, err)
	assert.Equal(t, []repositories.OrderTerm{
		{Column: repositories.SortByName, Direction: repositories.Ascending},
		{Column: repositories.SortByDistance, Direction: repositories.Descending},
	}, terms)

	terms, err = ParseOrder("Rating", locationSortColumns)
	require.NoError(t, err)
	assert.Equal(t, []repositories.OrderTerm{{Column: repositories.SortByRating, Direction: repositories.Ascending}}, terms)

	terms, err = ParseOrder("  ", locationSortColumns)
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestParseOrder_Rejects(t *testing.T) {
	for _, order := range []string{
		"name; DROP TABLE location",
		"name sideways",
		"name ASC extra",
		"name,,city",
		"distance ASC",
	} {
		allowed := locationSortColumns
		if order == "distance ASC" {
			allowed = reviewSortColumns
		}
		_, err := ParseOrder(order, allowed)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidOrder), order)
	}
}

func TestDefaultLocationOrder(t *testing.T) {
	withOrigin := defaultLocationOrder(true)
	require.Len(t, withOrigin, 4)
	assert.Equal(t, repositories.SortByPriority, withOrigin[0].Column)
	assert.Equal(t, repositories.SortByDistance, withOrigin[1].Column)
	assert.True(t, withOrigin[1].NullsLast)
	assert.Equal(t, repositories.SortByID, withOrigin[3].Column)

	withoutOrigin := defaultLocationOrder(false)
	require.Len(t, withoutOrigin, 3)
	assert.Equal(t, repositories.SortByName, withoutOrigin[1].Column)
}

func TestWithIDTiebreak(t *testing.T) {
	terms := withIDTiebreak([]repositories.OrderTerm{{Column: repositories.SortByName}})
	require.Len(t, terms, 2)
	assert.Equal(t, repositories.SortByID, terms[1].Column)

	terms = withIDTiebreak([]repositories.OrderTerm{{Column: repositories.SortByID, Direction: repositories.Descending}})
	assert.Len(t, terms, 1)
}

func TestPageOffset(t *testing.T) {
	offset, err := pageOffset(3, 25)
	require.NoError(t, err)
	assert.Equal(t, 75, offset)

	offset, err = pageOffset(-2, 25)
	require.NoError(t, err)
	assert.Zero(t, offset)

	offset, err = pageOffset(math.MaxInt/100, 100)
	require.NoError(t, err)
	assert.Positive(t, offset)

	_, err = pageOffset(math.MaxInt/100+1, 100)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidPage))
}
