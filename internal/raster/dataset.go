// Package raster reads windows of geocoded elevation rasters through GDAL.
package raster

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/airbusgeo/godal"
)

// ErrInputNotFound marks a missing source raster.
var ErrInputNotFound = errors.New("input raster not found")

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// Dataset is a single-band elevation raster opened read-only.
type Dataset struct {
	ds   *godal.Dataset
	path string
}

// Open opens the raster at path.
func Open(path string) (*Dataset, error) {
	register()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raster %s: %w", path, err)
	}
	return &Dataset{ds: ds, path: path}, nil
}

// Close releases the underlying dataset.
func (d *Dataset) Close() error {
	return d.ds.Close()
}

// Path returns the path the dataset was opened from.
func (d *Dataset) Path() string {
	return d.path
}

// Size returns the raster dimensions in pixels.
func (d *Dataset) Size() (cols, rows int) {
	st := d.ds.Structure()
	return st.SizeX, st.SizeY
}

// GeoTransform returns the six-element affine transform of the raster.
// Rotated or skewed rasters are rejected; the whole pipeline assumes
// north-up imagery.
func (d *Dataset) GeoTransform() ([6]float64, error) {
	gt, err := d.ds.GeoTransform()
	if err != nil {
		return gt, fmt.Errorf("reading geotransform of %s: %w", d.path, err)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return gt, fmt.Errorf("raster %s is rotated or skewed (gt[2]=%g, gt[4]=%g)", d.path, gt[2], gt[4])
	}
	if gt[1] == 0 || gt[5] == 0 {
		return gt, fmt.Errorf("raster %s has zero pixel size", d.path)
	}
	return gt, nil
}

// ProjectionWKT returns the WKT of the raster's spatial reference.
func (d *Dataset) ProjectionWKT() (string, error) {
	sr := d.ds.SpatialRef()
	wkt, err := sr.WKT()
	if err != nil {
		return "", fmt.Errorf("reading projection of %s: %w", d.path, err)
	}
	return wkt, nil
}

// Geographic reports whether the raster is in a geographic (lat/lon)
// coordinate system rather than a projected one.
func (d *Dataset) Geographic() bool {
	return d.ds.SpatialRef().Geographic()
}

// Warp reprojects the dataset into a new file at dstPath using gdalwarp
// switches and returns the warped dataset.
func (d *Dataset) Warp(dstPath string, switches []string) (*Dataset, error) {
	out, err := d.ds.Warp(dstPath, switches)
	if err != nil {
		return nil, fmt.Errorf("warping %s to %s: %w", d.path, dstPath, err)
	}
	return &Dataset{ds: out, path: dstPath}, nil
}

// ReadWindow reads a cols x rows pixel window of the first band starting at
// (col0, row0). The returned grid carries a window-local transform so pixel
// (0, 0) maps to the window's top-left projected coordinate.
func (d *Dataset) ReadWindow(col0, row0, cols, rows int) (*ElevationGrid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("window %dx%d of %s has zero area", cols, rows, d.path)
	}

	gt, err := d.GeoTransform()
	if err != nil {
		return nil, err
	}

	bands := d.ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster %s has no bands", d.path)
	}
	band := bands[0]

	data := make([]float64, cols*rows)
	if err := band.Read(col0, row0, data, cols, rows); err != nil {
		return nil, fmt.Errorf("reading window (%d,%d %dx%d) of %s: %w", col0, row0, cols, rows, d.path, err)
	}

	wkt, err := d.ProjectionWKT()
	if err != nil {
		return nil, err
	}

	grid := &ElevationGrid{
		Data: data,
		Rows: rows,
		Cols: cols,
		Transform: [6]float64{
			gt[0] + float64(col0)*gt[1],
			gt[1],
			0,
			gt[3] + float64(row0)*gt[5],
			0,
			gt[5],
		},
		CRS:  wkt,
		ResX: gt[1],
		ResY: gt[5],
	}

	if nodata, ok := band.NoData(); ok {
		grid.NoData = nodata
		grid.HasNoData = true
	}

	return grid, nil
}
