package mesh

import (
	"fmt"

	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/openwindlab/demforge/internal/utils"
)

func r3vec(v stl.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// WriteSTL writes the mesh to a binary STL file, creating the parent
// directory if needed.
func WriteSTL(path string, m *Mesh) error {
	if err := utils.EnsureParentDir(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersistence, path, err)
	}

	solid := stl.Solid{
		Name:      "terrain",
		IsAscii:   false,
		Triangles: make([]stl.Triangle, 0, len(m.Faces)),
	}

	for _, f := range m.Faces {
		var t stl.Triangle
		for i, idx := range f {
			p := m.Points[idx]
			t.Vertices[i] = stl.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
		}
		solid.Triangles = append(solid.Triangles, t)
	}
	solid.RecalculateNormals()

	if err := solid.WriteFile(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPersistence, path, err)
	}
	return nil
}

// ReadSTL reads a mesh from an STL file. STL stores a triangle soup, so
// vertices are re-shared by exact coordinate equality; elevations survive as
// vertex Z values but any finer per-vertex attributes do not.
func ReadSTL(path string) (*Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh %s: %w", path, err)
	}

	index := make(map[stl.Vec3]int)
	m := &Mesh{}
	for _, t := range solid.Triangles {
		var face [3]int
		for i, v := range t.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Points)
				index[v] = idx
				m.Points = append(m.Points, r3vec(v))
			}
			face[i] = idx
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}
