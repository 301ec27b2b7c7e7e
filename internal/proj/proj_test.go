package proj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTMZone(t *testing.T) {
	tests := []struct {
		lon  float64
		zone int
	}{
		{-180, 1},
		{-75.0, 18},
		{0, 31},
		{9.0, 32},
		{13.4, 33},
		{151.2, 56},
		{179.9, 60},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.zone, UTMZone(tt.lon), "lon %g", tt.lon)
	}
}

func TestUTMEPSG(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		epsg     int
	}{
		{"berlin", 52.5, 13.4, 32633},
		{"cape town", -33.9, 18.4, 32734},
		{"equator north", 0, 0, 32631},
		{"sydney", -33.87, 151.2, 32756},
		{"denver", 39.7, -105.0, 32613},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.epsg, UTMEPSG(tt.lat, tt.lon))
		})
	}
}

func TestProjectedPointChecksSuccessFlag(t *testing.T) {
	x, y, err := projectedPoint([]float64{691600}, []float64{5334600}, []bool{true}, 48.14, 11.58)
	require.NoError(t, err)
	assert.Equal(t, 691600.0, x)
	assert.Equal(t, 5334600.0, y)

	// a failed point carries garbage coordinates alongside a nil transform
	// error; it must not slip through as a valid crop center
	_, _, err = projectedPoint([]float64{1e308}, []float64{1e308}, []bool{false}, 48.14, 11.58)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not transformable")

	_, _, err = projectedPoint(nil, nil, nil, 48.14, 11.58)
	assert.Error(t, err)
}

func TestUTMPathFor(t *testing.T) {
	assert.Equal(t, "/data/dem_utm.tif", UTMPathFor("/data/dem.tif"))
	assert.Equal(t, "dem_utm", UTMPathFor("dem"))
	assert.Equal(t, "a/b_utm.vrt", UTMPathFor("a/b.vrt"))
}
