package crop

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwindlab/demforge/internal/raster"
)

// testGrid builds a synthetic projected window with 10 m pixels whose
// center pixel sits at projected (0, 0).
func testGrid(rows, cols int) *raster.ElevationGrid {
	const res = 10.0
	x0 := -res * float64(cols-1) / 2
	y0 := res * float64(rows-1) / 2

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 100
	}
	return &raster.ElevationGrid{
		Data:      data,
		Rows:      rows,
		Cols:      cols,
		Transform: [6]float64{x0, res, 0, y0, 0, -res},
		ResX:      res,
		ResY:      -res,
	}
}

func TestMaskAxisAlignedExactness(t *testing.T) {
	grid := testGrid(101, 101)

	// rotation 90 is the 0-degree-equivalent orientation under the -90
	// offset convention.
	fp := Footprint{Center: orb.Point{0, 0}, SideM: 600, RotationDeg: 90}
	mask := MaskFor(grid, fp)

	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			x := grid.ProjectedX(col)
			y := grid.ProjectedY(row)
			want := math.Abs(x) <= 300 && math.Abs(y) <= 300
			if mask[row*grid.Cols+col] != want {
				t.Fatalf("pixel (%d,%d) at (%g,%g): mask=%v want=%v",
					row, col, x, y, mask[row*grid.Cols+col], want)
			}
		}
	}

	// boundary pixels at exactly half-side distance are included
	assert.Equal(t, 61*61, mask.Count())
}

func TestMaskRotationAreaInvariance(t *testing.T) {
	// 301x301 pixels of 10 m cover the rotated 2 km square at any angle;
	// the crop is large relative to the pixel size so lattice alignment
	// effects stay well under the 2% bound.
	grid := testGrid(301, 301)

	base := MaskFor(grid, Footprint{Center: orb.Point{0, 0}, SideM: 2000, RotationDeg: 90}).Count()
	require.Greater(t, base, 0)

	for deg := 0.0; deg < 360; deg += 15 {
		count := MaskFor(grid, Footprint{Center: orb.Point{0, 0}, SideM: 2000, RotationDeg: deg}).Count()
		ratio := float64(count) / float64(base)
		assert.InDeltaf(t, 1.0, ratio, 0.02, "rotation %g deg: %d pixels vs %d axis-aligned", deg, count, base)
	}
}

func TestMaskOutsideFootprintIsEmpty(t *testing.T) {
	grid := testGrid(11, 11)

	fp := Footprint{Center: orb.Point{100000, 100000}, SideM: 50, RotationDeg: 0}
	assert.Equal(t, 0, MaskFor(grid, fp).Count())
}

func TestWindowFromBound(t *testing.T) {
	// 100x100 raster, 10 m pixels, top-left at (0, 1000)
	gt := [6]float64{0, 10, 0, 1000, 0, -10}

	tests := []struct {
		name       string
		bound      orb.Bound
		wantErr    bool
		wantWindow window
	}{
		{
			name:       "interior bound",
			bound:      orb.Bound{Min: orb.Point{200, 200}, Max: orb.Point{400, 400}},
			wantWindow: window{col0: 20, row0: 60, cols: 20, rows: 20},
		},
		{
			name:       "clamped to raster extent",
			bound:      orb.Bound{Min: orb.Point{-500, 500}, Max: orb.Point{500, 1500}},
			wantWindow: window{col0: 0, row0: 0, cols: 50, rows: 50},
		},
		{
			name:    "entirely right of raster",
			bound:   orb.Bound{Min: orb.Point{2000, 200}, Max: orb.Point{2400, 400}},
			wantErr: true,
		},
		{
			name:    "entirely above raster",
			bound:   orb.Bound{Min: orb.Point{200, 5000}, Max: orb.Point{400, 6000}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win, err := windowFromBound(gt, 100, 100, tt.bound)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrEmptyWindow))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWindow, win)
		})
	}
}

func TestFootprintBuffer(t *testing.T) {
	fp := Footprint{SideM: 2000}
	assert.InDelta(t, 1000*math.Sqrt2, fp.Buffer(), 1e-9)

	b := fp.ExpandedBound()
	assert.InDelta(t, fp.Buffer()*2, b.Max[0]-b.Min[0], 1e-9)
	assert.InDelta(t, fp.Buffer()*2, b.Max[1]-b.Min[1], 1e-9)
}

func TestFootprintCorners(t *testing.T) {
	fp := Footprint{Center: orb.Point{50, -20}, SideM: 1000, RotationDeg: 137}

	// corners stay at half-diagonal distance from the center under any
	// rotation
	want := 500 * math.Sqrt2
	for _, c := range fp.Corners() {
		d := math.Hypot(c[0]-fp.Center[0], c[1]-fp.Center[1])
		assert.InDelta(t, want, d, 1e-9)
	}
}

func TestFootprintContainsBoundaryInclusive(t *testing.T) {
	fp := Footprint{Center: orb.Point{0, 0}, SideM: 200, RotationDeg: 90}

	assert.True(t, fp.Contains(100, 100))
	assert.True(t, fp.Contains(-100, -100))
	assert.False(t, fp.Contains(100.001, 0))
	assert.False(t, fp.Contains(0, -100.001))
}
