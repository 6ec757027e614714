package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/isbx/locations/backend/internal/domain/entities"
	"github.com/isbx/locations/backend/internal/domain/geo"
	"github.com/isbx/locations/backend/internal/domain/rating"
	"github.com/isbx/locations/backend/internal/domain/repositories"
	"github.com/isbx/locations/backend/internal/infrastructure/clients/postgres"
	"github.com/isbx/locations/backend/internal/infrastructure/observability"
	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const (
	locationTable     = "location"
	organizationTable = "organization"
	ratingTable       = "location_rating"
	userLocationTable = "user_location"
	couponTable       = "location_coupon"
)

// LocationAdapter implements the LocationRepository interface
type LocationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLocationAdapter creates a new location adapter
func NewLocationAdapter(client *postgres.Client) repositories.LocationRepository {
	return &LocationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// locationRecord is the scanned shape of one search row
type locationRecord struct {
	ID                        int64           `db:"id"`
	Name                      string          `db:"name"`
	Description               sql.NullString  `db:"description"`
	AddressLine1              sql.NullString  `db:"address_line1"`
	AddressLine2              sql.NullString  `db:"address_line2"`
	City                      sql.NullString  `db:"city"`
	State                     sql.NullString  `db:"state"`
	PostalCode                sql.NullString  `db:"postal_code"`
	PhoneNumber               sql.NullString  `db:"phone_number"`
	LongLat                   sql.NullString  `db:"long_lat"`
	Timezone                  sql.NullString  `db:"timezone"`
	OrganizationID            sql.NullInt64   `db:"organization_id"`
	Priority                  int             `db:"priority"`
	IsDeliveryAvailable       bool            `db:"is_delivery_available"`
	DeliveryMileRadius        sql.NullFloat64 `db:"delivery_mile_radius"`
	DeliveryFee               sql.NullFloat64 `db:"delivery_fee"`
	AllowOffHours             bool            `db:"allow_off_hours"`
	Deleted                   bool            `db:"deleted"`
	Created                   time.Time       `db:"created"`
	Modified                  time.Time       `db:"modified"`
	OrganizationAllowOffHours bool            `db:"organization_allow_off_hours"`
	Rating                    sql.NullFloat64 `db:"rating"`
	RatingCount               int             `db:"rating_count"`
	Distance                  sql.NullFloat64 `db:"distance"`
}

func (r *locationRecord) toRow() *entities.LocationRow {
	row := &entities.LocationRow{
		Location: entities.Location{
			ID:                  r.ID,
			Name:                r.Name,
			Description:         r.Description.String,
			AddressLine1:        r.AddressLine1.String,
			AddressLine2:        r.AddressLine2.String,
			City:                r.City.String,
			State:               r.State.String,
			PostalCode:          r.PostalCode.String,
			PhoneNumber:         r.PhoneNumber.String,
			Coordinates:         geo.ParsePointLoose(r.LongLat.String),
			Timezone:            r.Timezone.String,
			Priority:            r.Priority,
			IsDeliveryAvailable: r.IsDeliveryAvailable,
			AllowOffHours:       r.AllowOffHours,
			Deleted:             r.Deleted,
			Created:             r.Created,
			Modified:            r.Modified,
		},
		OrganizationAllowOffHours: r.OrganizationAllowOffHours,
		RatingCount:               r.RatingCount,
	}
	if r.OrganizationID.Valid {
		row.OrganizationID = &r.OrganizationID.Int64
	}
	if r.DeliveryMileRadius.Valid {
		row.DeliveryMileRadius = &r.DeliveryMileRadius.Float64
	}
	if r.DeliveryFee.Valid {
		row.DeliveryFee = &r.DeliveryFee.Float64
	}
	if r.Rating.Valid {
		row.Rating = &r.Rating.Float64
	}
	if r.Distance.Valid {
		row.Distance = &r.Distance.Float64
	}
	return row
}

// distanceExpr is the great-circle distance in km from origin to l.long_lat.
// point[0] is longitude and point[1] is latitude.
func distanceExpr(origin *geo.Point) exp.LiteralExpression {
	return goqu.L(
		`2 * ? * ASIN(LEAST(1, SQRT(`+
			`POWER(SIN(RADIANS("l"."long_lat"[1] - ?) / 2), 2) + `+
			`COS(RADIANS(?)) * COS(RADIANS("l"."long_lat"[1])) * `+
			`POWER(SIN(RADIANS("l"."long_lat"[0] - ?) / 2), 2))))`,
		geo.EarthRadiusKm, origin.Latitude, origin.Latitude, origin.Longitude,
	)
}

func (a *LocationAdapter) selectRows(origin *geo.Point) *goqu.SelectDataset {
	ratings := a.db.From(ratingTable).
		Select(
			goqu.C("location_id"),
			goqu.L(fmt.Sprintf(rating.SQLExpression, `"rating"`)).As("rating"),
			goqu.COUNT("*").As("rating_count"),
		).
		Where(goqu.Ex{"deleted": false}).
		GroupBy("location_id")

	distance := goqu.L("NULL::double precision")
	if origin != nil {
		distance = distanceExpr(origin)
	}

	return a.db.From(goqu.T(locationTable).As("l")).
		LeftJoin(goqu.T(organizationTable).As("o"), goqu.On(goqu.I("o.id").Eq(goqu.I("l.organization_id")))).
		LeftJoin(ratings.As("r"), goqu.On(goqu.I("r.location_id").Eq(goqu.I("l.id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.name"), goqu.I("l.description"),
			goqu.I("l.address_line1"), goqu.I("l.address_line2"),
			goqu.I("l.city"), goqu.I("l.state"), goqu.I("l.postal_code"),
			goqu.I("l.phone_number"),
			goqu.L(`"l"."long_lat"::text`).As("long_lat"),
			goqu.I("l.timezone"), goqu.I("l.organization_id"), goqu.I("l.priority"),
			goqu.I("l.is_delivery_available"), goqu.I("l.delivery_mile_radius"),
			goqu.I("l.delivery_fee"), goqu.I("l.allow_off_hours"),
			goqu.I("l.deleted"), goqu.I("l.created"), goqu.I("l.modified"),
			goqu.COALESCE(goqu.I("o.allow_off_hours"), false).As("organization_allow_off_hours"),
			goqu.I("r.rating"),
			goqu.COALESCE(goqu.I("r.rating_count"), 0).As("rating_count"),
			distance.As("distance"),
		)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (a *LocationAdapter) filters(q repositories.LocationQuery) []exp.Expression {
	var where []exp.Expression

	if !q.IncludeDeleted {
		where = append(where, goqu.I("l.deleted").IsFalse())
	}
	if needle := strings.TrimSpace(q.Search); needle != "" {
		pattern := "%" + escapeLike(needle) + "%"
		where = append(where, goqu.Or(
			goqu.I("l.name").ILike(pattern),
			goqu.I("l.city").ILike(pattern),
			goqu.I("l.address_line1").ILike(pattern),
			goqu.I("l.address_line2").ILike(pattern),
		))
	}
	if q.BoundingBox != nil {
		box := q.BoundingBox.Normalized()
		where = append(where,
			goqu.L(`"l"."long_lat"[0] BETWEEN ? AND ?`, box.MinLongitude, box.MaxLongitude),
			goqu.L(`"l"."long_lat"[1] BETWEEN ? AND ?`, box.MinLatitude, box.MaxLatitude),
		)
	}
	if q.OrganizationID != nil {
		where = append(where, goqu.I("l.organization_id").Eq(*q.OrganizationID))
	}
	if q.AssignedUserID != nil {
		where = append(where, goqu.I("l.id").In(
			a.db.From(userLocationTable).
				Select("location_id").
				Where(goqu.Ex{"user_id": *q.AssignedUserID, "deleted": false}),
		))
	}
	if q.CouponID != nil {
		where = append(where, goqu.I("l.id").In(
			a.db.From(couponTable).
				Select("location_id").
				Where(goqu.Ex{"coupon_id": *q.CouponID}),
		))
	}
	if q.DeliveryAvailableOnly {
		where = append(where, goqu.I("l.is_delivery_available").IsTrue())
	}
	if q.Origin != nil && q.MileRadius != nil {
		where = append(where, distanceExpr(q.Origin).Lte(geo.MilesToKm(*q.MileRadius)))
	}
	return where
}

func orderExpr(term repositories.OrderTerm) exp.OrderedExpression {
	var col exp.IdentifierExpression
	switch term.Column {
	case repositories.SortByDistance:
		col = goqu.I("distance")
	case repositories.SortByRating:
		col = goqu.I("r.rating")
	default:
		col = goqu.I("l." + string(term.Column))
	}

	ordered := col.Asc()
	if term.Direction == repositories.Descending {
		ordered = col.Desc()
	}
	if term.NullsLast {
		ordered = ordered.NullsLast()
	}
	return ordered
}

// Search runs the count query and the page query over the same filters
func (a *LocationAdapter) Search(ctx context.Context, q repositories.LocationQuery) ([]*entities.LocationRow, int, error) {
	defer observability.RecordDBQuery(ctx, "location.search", time.Now())

	where := a.filters(q)

	countSQL, countArgs, err := a.db.From(goqu.T(locationTable).As("l")).
		Select(goqu.COUNT("*")).
		Where(where...).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.X().GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count locations", err)
	}
	if total == 0 {
		return []*entities.LocationRow{}, 0, nil
	}

	order := make([]exp.OrderedExpression, len(q.Order))
	for i, term := range q.Order {
		order[i] = orderExpr(term)
	}

	ds := a.selectRows(q.Origin).Where(where...).Order(order...)
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build search query", err)
	}

	var records []locationRecord
	if err := a.client.X().SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to search locations", err)
	}

	rows := make([]*entities.LocationRow, len(records))
	for i := range records {
		rows[i] = records[i].toRow()
	}
	return rows, total, nil
}

// GetByID retrieves a location with its rating summary
func (a *LocationAdapter) GetByID(ctx context.Context, id int64, includeDeleted bool) (*entities.LocationRow, error) {
	defer observability.RecordDBQuery(ctx, "location.get", time.Now())

	ds := a.selectRows(nil).Where(goqu.I("l.id").Eq(id))
	if !includeDeleted {
		ds = ds.Where(goqu.I("l.deleted").IsFalse())
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var record locationRecord
	err = a.client.X().GetContext(ctx, &record, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.LocationNotFound()
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get location", err)
	}
	return record.toRow(), nil
}

func locationRecordFor(location *entities.Location) goqu.Record {
	var longLat interface{}
	if location.Coordinates != nil {
		longLat = goqu.L("point(?, ?)", location.Coordinates.Longitude, location.Coordinates.Latitude)
	}
	return goqu.Record{
		"name":                  location.Name,
		"description":           nullString(location.Description),
		"address_line1":         nullString(location.AddressLine1),
		"address_line2":         nullString(location.AddressLine2),
		"city":                  nullString(location.City),
		"state":                 nullString(location.State),
		"postal_code":           nullString(location.PostalCode),
		"phone_number":          nullString(location.PhoneNumber),
		"long_lat":              longLat,
		"timezone":              nullString(location.Timezone),
		"organization_id":       location.OrganizationID,
		"priority":              location.Priority,
		"is_delivery_available": location.IsDeliveryAvailable,
		"delivery_mile_radius":  location.DeliveryMileRadius,
		"delivery_fee":          location.DeliveryFee,
		"allow_off_hours":       location.AllowOffHours,
		"deleted":               location.Deleted,
	}
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a location
func (a *LocationAdapter) Create(ctx context.Context, location *entities.Location) error {
	defer observability.RecordDBQuery(ctx, "location.create", time.Now())

	record := locationRecordFor(location)
	record["created"] = goqu.L("NOW()")
	record["modified"] = goqu.L("NOW()")

	query, args, err := a.db.Insert(locationTable).
		Rows(record).
		Returning("id", "created", "modified").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.X().QueryRowxContext(ctx, query, args...).
		Scan(&location.ID, &location.Created, &location.Modified)
	if err != nil {
		return apperrors.NewInternalError("failed to create location", err)
	}
	return nil
}

// Update overwrites the mutable fields of a location
func (a *LocationAdapter) Update(ctx context.Context, location *entities.Location) error {
	defer observability.RecordDBQuery(ctx, "location.update", time.Now())

	record := locationRecordFor(location)
	record["modified"] = goqu.L("NOW()")

	query, args, err := a.db.Update(locationTable).
		Set(record).
		Where(goqu.Ex{"id": location.ID}).
		Returning("created", "modified").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	err = a.client.X().QueryRowxContext(ctx, query, args...).Scan(&location.Created, &location.Modified)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.LocationNotFound()
	}
	if err != nil {
		return apperrors.NewInternalError("failed to update location", err)
	}
	return nil
}

// SoftDelete marks a location as deleted
func (a *LocationAdapter) SoftDelete(ctx context.Context, id int64) error {
	query, args, err := a.db.Update(locationTable).
		Set(goqu.Record{"deleted": true, "modified": goqu.L("NOW()")}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete location", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.LocationNotFound()
	}
	return nil
}

// SetAllowOffHoursByOrganization updates every live location of an organization
func (a *LocationAdapter) SetAllowOffHoursByOrganization(ctx context.Context, organizationID int64, allow bool) ([]int64, error) {
	query, args, err := a.db.Update(locationTable).
		Set(goqu.Record{"allow_off_hours": allow, "modified": goqu.L("NOW()")}).
		Where(goqu.Ex{"organization_id": organizationID, "deleted": false}).
		Returning("id").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	var ids []int64
	if err := a.client.X().SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to update off-hours", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListMissingTimezone returns located live rows without a timezone
func (a *LocationAdapter) ListMissingTimezone(ctx context.Context, afterID int64, limit int) ([]*entities.Location, error) {
	query, args, err := a.db.From(locationTable).
		Select(
			"id",
			goqu.L(`"long_lat"[0]`).As("longitude"),
			goqu.L(`"long_lat"[1]`).As("latitude"),
		).
		Where(
			goqu.C("id").Gt(afterID),
			goqu.C("deleted").IsFalse(),
			goqu.C("long_lat").IsNotNull(),
			goqu.L(`COALESCE("timezone", '') = ''`),
		).
		Order(goqu.I("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []struct {
		ID        int64   `db:"id"`
		Longitude float64 `db:"longitude"`
		Latitude  float64 `db:"latitude"`
	}
	if err := a.client.X().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list locations without timezone", err)
	}

	out := make([]*entities.Location, len(rows))
	for i, row := range rows {
		out[i] = &entities.Location{
			ID:          row.ID,
			Coordinates: &geo.Point{Longitude: row.Longitude, Latitude: row.Latitude},
		}
	}
	return out, nil
}

// SetTimezone stores the timezone of one location
func (a *LocationAdapter) SetTimezone(ctx context.Context, id int64, timezone string) error {
	query, args, err := a.db.Update(locationTable).
		Set(goqu.Record{"timezone": timezone, "modified": goqu.L("NOW()")}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to set timezone", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.LocationNotFound()
	}
	return nil
}
