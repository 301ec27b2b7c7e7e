package crop

import (
	"math"

	"github.com/paulmach/orb"
)

// RotationOffsetDeg is subtracted from the requested rotation before the
// inclusion test so that 0 degrees produces north-up output. Downstream
// tooling depends on this convention; do not change it.
const RotationOffsetDeg = 90.0

// Footprint is a square crop footprint in projected coordinates.
type Footprint struct {
	Center      orb.Point // projected (x, y)
	SideM       float64
	RotationDeg float64
}

// Buffer returns the expansion buffer guaranteeing that a window of
// Center +/- Buffer covers the footprint at any rotation angle. It is half
// the diagonal of the square.
func (f Footprint) Buffer() float64 {
	return f.SideM / 2 * math.Sqrt2
}

// ExpandedBound returns the axis-aligned bound of the footprint expanded by
// the rotation buffer.
func (f Footprint) ExpandedBound() orb.Bound {
	b := f.Buffer()
	return orb.Bound{
		Min: orb.Point{f.Center[0] - b, f.Center[1] - b},
		Max: orb.Point{f.Center[0] + b, f.Center[1] + b},
	}
}

// Corners returns the rotated footprint corners ordered bottom-left,
// bottom-right, top-right, top-left (order before rotation).
func (f Footprint) Corners() [4]orb.Point {
	h := f.SideM / 2
	rad := (f.RotationDeg - RotationOffsetDeg) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	local := [4]orb.Point{{-h, -h}, {h, -h}, {h, h}, {-h, h}}
	var out [4]orb.Point
	for i, p := range local {
		out[i] = orb.Point{
			f.Center[0] + p[0]*cos - p[1]*sin,
			f.Center[1] + p[0]*sin + p[1]*cos,
		}
	}
	return out
}

// Contains reports whether the projected point (x, y) lies inside the
// footprint, boundary inclusive. The point is rotated into the footprint's
// local frame and tested against the half-side on both axes.
func (f Footprint) Contains(x, y float64) bool {
	h := f.SideM / 2
	rad := (f.RotationDeg - RotationOffsetDeg) * math.Pi / 180
	cos, sin := math.Cos(-rad), math.Sin(-rad)

	relX := x - f.Center[0]
	relY := y - f.Center[1]
	localX := relX*cos - relY*sin
	localY := relX*sin + relY*cos

	return math.Abs(localX) <= h && math.Abs(localY) <= h
}
