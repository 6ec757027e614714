// Package geo holds the coordinate value type and the great-circle helpers
// used for distance ranking, radius filters and bounding-box containment.
package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

const (
	// EarthRadiusKm is the spherical radius used by PostGIS ST_DistanceSphere.
	EarthRadiusKm = 6370.986

	// KmPerMile converts between kilometres and statute miles.
	KmPerMile = 1.609344
)

// Point is a longitude/latitude pair in decimal degrees
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewPoint builds a validated point
func NewPoint(longitude, latitude float64) (*Point, error) {
	p := &Point{Longitude: longitude, Latitude: latitude}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the point is inside [-180,180] x [-90,90]
func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) ||
		p.Longitude < -180 || p.Longitude > 180 ||
		p.Latitude < -90 || p.Latitude > 90 {
		return apperrors.InvalidCoordinates()
	}
	return nil
}

var pointPattern = regexp.MustCompile(`^\((.*),(.*)\)$`)

// ParsePoint strictly decodes a "(lon,lat)" string. Any malformed or out of
// range input is a validation error.
func ParsePoint(s string) (*Point, error) {
	m := pointPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, apperrors.InvalidCoordinates()
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil {
		return nil, apperrors.InvalidCoordinates()
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	if err != nil {
		return nil, apperrors.InvalidCoordinates()
	}
	return NewPoint(lon, lat)
}

// ParsePointLoose decodes a stored "(lon,lat)" value and returns nil
// instead of an error when the value cannot be used.
func ParsePointLoose(s string) *Point {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	p, err := ParsePoint(s)
	if err != nil {
		return nil
	}
	return p
}

// Format renders p in the "(lon,lat)" storage form
func (p Point) Format() string {
	return "(" + strconv.FormatFloat(p.Longitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ")"
}

// DistanceKm returns the great-circle distance between a and b. The second
// result is false when either point is missing.
func DistanceKm(a, b *Point) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c, true
}

// KmToMiles converts kilometres to miles
func KmToMiles(km float64) float64 {
	return km / KmPerMile
}

// MilesToKm converts miles to kilometres
func MilesToKm(miles float64) float64 {
	return miles * KmPerMile
}

// WithinRadiusMiles reports whether distanceKm is no further than miles
func WithinRadiusMiles(distanceKm, miles float64) bool {
	return KmToMiles(distanceKm) <= miles
}

// BoundingBox is an axis-aligned lon/lat rectangle. Corners may be given in
// either order; containment uses the normalized extent with inclusive edges.
type BoundingBox struct {
	MinLongitude float64 `json:"minLong"`
	MinLatitude  float64 `json:"minLat"`
	MaxLongitude float64 `json:"maxLong"`
	MaxLatitude  float64 `json:"maxLat"`
}

// NewBoundingBox returns a box only when all four edges are supplied
func NewBoundingBox(minLat, minLong, maxLat, maxLong *float64) *BoundingBox {
	if minLat == nil || minLong == nil || maxLat == nil || maxLong == nil {
		return nil
	}
	return &BoundingBox{
		MinLongitude: *minLong,
		MinLatitude:  *minLat,
		MaxLongitude: *maxLong,
		MaxLatitude:  *maxLat,
	}
}

// Normalized returns the box with min <= max on both axes
func (b BoundingBox) Normalized() BoundingBox {
	return BoundingBox{
		MinLongitude: math.Min(b.MinLongitude, b.MaxLongitude),
		MinLatitude:  math.Min(b.MinLatitude, b.MaxLatitude),
		MaxLongitude: math.Max(b.MinLongitude, b.MaxLongitude),
		MaxLatitude:  math.Max(b.MinLatitude, b.MaxLatitude),
	}
}

// Contains tests inclusive containment. A nil point is never contained.
func (b BoundingBox) Contains(p *Point) bool {
	if p == nil {
		return false
	}
	n := b.Normalized()
	return p.Longitude >= n.MinLongitude && p.Longitude <= n.MaxLongitude &&
		p.Latitude >= n.MinLatitude && p.Latitude <= n.MaxLatitude
}

// WithinBoundingBox is the free-function form of BoundingBox.Contains
func WithinBoundingBox(p *Point, minLon, minLat, maxLon, maxLat float64) bool {
	return BoundingBox{
		MinLongitude: minLon,
		MinLatitude:  minLat,
		MaxLongitude: maxLon,
		MaxLatitude:  maxLat,
	}.Contains(p)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
