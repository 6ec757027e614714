package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

// OrganizationAdapter implements the OrganizationRepository interface
type OrganizationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrganizationAdapter creates a new organization adapter
func NewOrganizationAdapter(client *postgres.Client) repositories.OrganizationRepository {
	return &OrganizationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *OrganizationAdapter) get(ctx context.Context, where goqu.Ex) (*entities.Organization, error) {
	query, args, err := a.db.From(organizationTable).
		Select(
			"id", "name",
			goqu.COALESCE(goqu.C("pos_id"), "").As("pos_id"),
			"allow_off_hours", "deleted", "created", "modified",
		).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	org := &entities.Organization{}
	err = a.client.X().GetContext(ctx, org, query, args...)
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID returns an organization
func (a *OrganizationAdapter) GetByID(ctx context.Context, id int64) (*entities.Organization, error) {
	org, err := a.get(ctx, goqu.Ex{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.OrganizationNotFound()
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get organization", err)
	}
	return org, nil
}

// GetByPosID returns the live organization with posID, or nil when none matches
func (a *OrganizationAdapter) GetByPosID(ctx context.Context, posID string) (*entities.Organization, error) {
	org, err := a.get(ctx, goqu.Ex{"pos_id": posID, "deleted": false})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get organization", err)
	}
	return org, nil
}

// UserLocationAdapter implements the UserLocationRepository interface
type UserLocationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserLocationAdapter creates a new user location adapter
func NewUserLocationAdapter(client *postgres.Client) repositories.UserLocationRepository {
	return &UserLocationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// IsAssigned reports whether a live assignment exists
func (a *UserLocationAdapter) IsAssigned(ctx context.Context, userID, locationID int64) (bool, error) {
	query, args, err := a.db.From(userLocationTable).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"user_id": userID, "location_id": locationID, "deleted": false}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var n int
	if err := a.client.X().GetContext(ctx, &n, query, args...); err != nil {
		return false, apperrors.NewInternalError("failed to check location assignment", err)
	}
	return n > 0, nil
}
