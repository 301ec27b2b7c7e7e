// Package crop extracts a rotated square footprint from a projected
// elevation raster as a pixel window plus a boolean inclusion mask.
package crop

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/openwindlab/demforge/internal/raster"
)

var (
	// ErrEmptyWindow marks a crop window with zero area after clamping to
	// the raster extent.
	ErrEmptyWindow = errors.New("crop window is empty")

	// ErrEmptyCrop marks a crop whose mask selects zero pixels.
	ErrEmptyCrop = errors.New("crop mask selects no pixels")
)

// Mask flags, per window pixel, whether its projected coordinate lies
// inside the rotated footprint. It is aligned 1:1 with the window grid.
type Mask []bool

// Count returns the number of included pixels.
func (m Mask) Count() int {
	n := 0
	for _, in := range m {
		if in {
			n++
		}
	}
	return n
}

// window is a clamped pixel window in raster coordinates.
type window struct {
	col0, row0 int
	cols, rows int
}

// windowFromBound converts an expanded projected bound to a pixel window,
// clamped to the raster extent.
func windowFromBound(gt [6]float64, width, height int, b orb.Bound) (window, error) {
	resX := gt[1]
	resY := -gt[5] // positive pixel height
	left := gt[0]
	top := gt[3]

	colMin := int((b.Min[0] - left) / resX)
	colMax := int((b.Max[0] - left) / resX)
	rowMin := int((top - b.Max[1]) / resY)
	rowMax := int((top - b.Min[1]) / resY)

	colMin = max(0, colMin)
	colMax = min(width, colMax)
	rowMin = max(0, rowMin)
	rowMax = min(height, rowMax)

	if colMax <= colMin || rowMax <= rowMin {
		return window{}, fmt.Errorf("%w: bound [%g %g %g %g] outside raster",
			ErrEmptyWindow, b.Min[0], b.Min[1], b.Max[0], b.Max[1])
	}

	return window{col0: colMin, row0: rowMin, cols: colMax - colMin, rows: rowMax - rowMin}, nil
}

// MaskFor builds the inclusion mask of a footprint over a window grid. Each
// pixel's projected coordinate is taken from the window's own transform.
func MaskFor(grid *raster.ElevationGrid, fp Footprint) Mask {
	mask := make(Mask, grid.Rows*grid.Cols)
	for row := 0; row < grid.Rows; row++ {
		y := grid.ProjectedY(row)
		for col := 0; col < grid.Cols; col++ {
			mask[row*grid.Cols+col] = fp.Contains(grid.ProjectedX(col), y)
		}
	}
	return mask
}

// Extract reads the pixel window covering the footprint at any rotation and
// derives the inclusion mask. The footprint center must be in the raster's
// projected coordinate system.
func Extract(ds *raster.Dataset, fp Footprint, log *zap.Logger) (*raster.ElevationGrid, Mask, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, nil, err
	}
	width, height := ds.Size()

	win, err := windowFromBound(gt, width, height, fp.ExpandedBound())
	if err != nil {
		return nil, nil, err
	}

	log.Debug("reading crop window",
		zap.Int("col0", win.col0), zap.Int("row0", win.row0),
		zap.Int("cols", win.cols), zap.Int("rows", win.rows))

	grid, err := ds.ReadWindow(win.col0, win.row0, win.cols, win.rows)
	if err != nil {
		return nil, nil, err
	}

	mask := MaskFor(grid, fp)
	included := mask.Count()
	if included == 0 {
		return nil, nil, fmt.Errorf("%w: side %gm at rotation %g deg", ErrEmptyCrop, fp.SideM, fp.RotationDeg)
	}

	log.Debug("crop mask built",
		zap.Int("included", included),
		zap.Int("total", len(mask)),
		zap.Float64("rotation_deg", fp.RotationDeg))

	return grid, mask, nil
}
