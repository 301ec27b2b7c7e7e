// Package mesh triangulates masked elevation windows into 2.5D terrain
// surfaces and realigns them back to axis-aligned coordinates.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/openwindlab/demforge/internal/raster"
)

var (
	// ErrEmptyMesh marks a crop with zero valid points after mask and
	// no-data exclusion.
	ErrEmptyMesh = errors.New("no valid points to mesh")

	// ErrPersistence marks a failed mesh write.
	ErrPersistence = errors.New("mesh write failed")
)

// Mesh is a triangulated terrain surface. Vertex elevation is the Z
// component of each point; faces are triples of vertex indices.
type Mesh struct {
	Points []r3.Vec
	Faces  [][3]int
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range m.Points {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}

// Build converts the masked elevation window into a point cloud and
// triangulates its (x, y) projection with a single Delaunay pass. Elevation
// never enters the triangulation criterion; it rides along as the vertex Z.
//
// The mesh-local frame is centered at the mean pixel position of the full
// window, not of the masked subset, so the origin stays put across
// different rotations of the same window. A nil mask includes every pixel.
//
// Unconstrained triangulation over a non-convex mask can leave ill-shaped
// sliver triangles along the boundary; they are kept, so consumers that
// need quality bounds must filter faces themselves.
func Build(grid *raster.ElevationGrid, mask []bool) (*Mesh, error) {
	xs := make([]float64, grid.Cols)
	ys := make([]float64, grid.Rows)
	for col := range xs {
		xs[col] = float64(col) * grid.ResX
	}
	for row := range ys {
		ys[row] = float64(row) * math.Abs(grid.ResY)
	}
	meanX := mean(xs)
	meanY := mean(ys)

	var points []r3.Vec
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if mask != nil && !mask[row*grid.Cols+col] {
				continue
			}
			if !grid.Valid(row, col) {
				continue
			}
			points = append(points, r3.Vec{
				X: xs[col] - meanX,
				Y: ys[row] - meanY,
				Z: grid.At(row, col),
			})
		}
	}

	if len(points) == 0 {
		return nil, ErrEmptyMesh
	}

	flat := make([]delaunay.Point, len(points))
	for i, p := range points {
		flat[i] = delaunay.Point{X: p.X, Y: p.Y}
	}

	tri, err := delaunay.Triangulate(flat)
	if err != nil {
		return nil, fmt.Errorf("triangulating %d points: %w", len(points), err)
	}

	faces := make([][3]int, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		faces = append(faces, [3]int{tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]})
	}

	return &Mesh{Points: points, Faces: faces}, nil
}

// Realign returns a copy of the mesh counter-rotated by rotationDeg around
// the vertical axis, with optional axis flips applied afterwards. Elevation
// is untouched. The input mesh is left intact so pre- and post-realignment
// states stay inspectable.
func Realign(m *Mesh, rotationDeg float64, flipX, flipY bool) *Mesh {
	rad := -rotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	out := &Mesh{
		Points: make([]r3.Vec, len(m.Points)),
		Faces:  make([][3]int, len(m.Faces)),
	}
	copy(out.Faces, m.Faces)

	for i, p := range m.Points {
		x := p.X*cos - p.Y*sin
		y := p.X*sin + p.Y*cos
		if flipX {
			x = -x
		}
		if flipY {
			y = -y
		}
		out.Points[i] = r3.Vec{X: x, Y: y, Z: p.Z}
	}
	return out
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
