package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/isbx/locations/backend/pkg/errors"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Point
		wantErr bool
	}{
		{name: "valid", input: "(-118.424138,34.020575)", want: &Point{Longitude: -118.424138, Latitude: 34.020575}},
		{name: "spaces", input: " ( -118.4 , 34.0 ) ", want: &Point{Longitude: -118.4, Latitude: 34.0}},
		{name: "bounds inclusive", input: "(180,-90)", want: &Point{Longitude: 180, Latitude: -90}},
		{name: "longitude out of range", input: "(180.1,0)", wantErr: true},
		{name: "latitude out of range", input: "(0,90.5)", wantErr: true},
		{name: "no parens", input: "-118,34", wantErr: true},
		{name: "missing close paren", input: "(-118,34", wantErr: true},
		{name: "non numeric", input: "(abc,34)", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "extra component", input: "(1,2,3)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoint(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCoordinates))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePointLoose(t *testing.T) {
	assert.Nil(t, ParsePointLoose(""))
	assert.Nil(t, ParsePointLoose("garbage"))
	assert.Nil(t, ParsePointLoose("(1,2"))
	assert.Equal(t, &Point{Longitude: 1, Latitude: 2}, ParsePointLoose("(1,2)"))
}

func TestFormatRoundTrip(t *testing.T) {
	p := Point{Longitude: -118.424138, Latitude: 34.020575}
	assert.Equal(t, "(-118.424138,34.020575)", p.Format())

	parsed, err := ParsePoint(p.Format())
	require.NoError(t, err)
	assert.Equal(t, p, *parsed)
}

func TestDistanceKm(t *testing.T) {
	isbx := &Point{Longitude: -118.424138, Latitude: 34.020575}

	d, ok := DistanceKm(isbx, isbx)
	assert.True(t, ok)
	assert.InDelta(t, 0, d, 1e-9)

	// Los Angeles to New York is roughly 3936 km on the sphere.
	nyc := &Point{Longitude: -73.935242, Latitude: 40.730610}
	d, ok = DistanceKm(isbx, nyc)
	assert.True(t, ok)
	assert.InDelta(t, 3950, d, 40)

	far := &Point{Longitude: -118.419058, Latitude: 33.0135573}
	d, ok = DistanceKm(isbx, far)
	assert.True(t, ok)
	assert.InDelta(t, 69.6, KmToMiles(d), 1.0)

	_, ok = DistanceKm(nil, isbx)
	assert.False(t, ok)
	_, ok = DistanceKm(isbx, nil)
	assert.False(t, ok)
}

func TestWithinRadiusMiles(t *testing.T) {
	assert.True(t, WithinRadiusMiles(0.8, 0.5))
	assert.True(t, WithinRadiusMiles(MilesToKm(0.5), 0.5))
	assert.False(t, WithinRadiusMiles(0.81, 0.5))
}

func TestBoundingBox(t *testing.T) {
	minLat, minLong, maxLat, maxLong := 34.0826, -118.316, 33.9585, -118.5323

	box := NewBoundingBox(&minLat, &minLong, &maxLat, &maxLong)
	require.NotNil(t, box)

	assert.True(t, box.Contains(&Point{Longitude: -118.424138, Latitude: 34.020575}))
	assert.True(t, box.Contains(&Point{Longitude: -118.316, Latitude: 34.0826}), "edges are inclusive")
	assert.False(t, box.Contains(&Point{Longitude: -118.2, Latitude: 34.0}))
	assert.False(t, box.Contains(nil))

	assert.Nil(t, NewBoundingBox(&minLat, &minLong, &maxLat, nil))

	assert.True(t, WithinBoundingBox(&Point{Longitude: 1, Latitude: 1}, 0, 0, 2, 2))
	assert.False(t, WithinBoundingBox(&Point{Longitude: 3, Latitude: 1}, 0, 0, 2, 2))
}
