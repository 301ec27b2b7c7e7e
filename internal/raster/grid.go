package raster

// ElevationGrid is a window of elevation samples together with the affine
// transform that places pixel (row, col) in projected coordinates.
//
// The transform follows the GDAL geotransform convention:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
//
// gt[5] is conventionally negative (north-up rasters).
type ElevationGrid struct {
	Data      []float64 // row-major, len == Rows*Cols
	Rows      int
	Cols      int
	Transform [6]float64
	CRS       string // WKT of the grid's coordinate reference system
	ResX      float64
	ResY      float64 // negative for north-up rasters
	NoData    float64
	HasNoData bool
}

// At returns the sample at (row, col).
func (g *ElevationGrid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

// Set overwrites the sample at (row, col).
func (g *ElevationGrid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// Valid reports whether the sample at (row, col) carries real data.
func (g *ElevationGrid) Valid(row, col int) bool {
	return !g.HasNoData || g.At(row, col) != g.NoData
}

// ProjectedX returns the projected x coordinate of the pixel column origin.
func (g *ElevationGrid) ProjectedX(col int) float64 {
	return g.Transform[0] + float64(col)*g.Transform[1]
}

// ProjectedY returns the projected y coordinate of the pixel row origin.
func (g *ElevationGrid) ProjectedY(row int) float64 {
	return g.Transform[3] + float64(row)*g.Transform[5]
}
