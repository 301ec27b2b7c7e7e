package smooth

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/openwindlab/demforge/internal/mesh"
)

// EdgeBufferM is the fixed buffer between the end of the blend transition
// and the domain edge.
const EdgeBufferM = 1000.0

// BlendWeight returns the blend factor for a vertex at planar distance d
// from the domain center: 0 inside the AOI, 1 beyond transitionEnd, and a
// half-cosine ramp in between. The ramp is continuously differentiable at
// both band edges, so the blended surface has no curvature jumps.
func BlendWeight(d, aoiRadius, transitionEnd float64) float64 {
	switch {
	case d <= aoiRadius:
		return 0
	case d >= transitionEnd:
		return 1
	default:
		t := (d - aoiRadius) / (transitionEnd - aoiRadius)
		return 0.5 * (1 - math.Cos(math.Pi*t))
	}
}

// BoundaryBlend flattens mesh elevation toward a reference value near the
// domain edge, in place. The untouched core has radius aoiSizeM/2; the
// transition ends EdgeBufferM before the domain edge. The reference is the
// mean elevation of AOI vertices after discarding the lowest 10% and the
// highest 20% by value, so isolated valleys and peaks don't drag it. The
// reference elevation is returned for provenance.
func BoundaryBlend(m *mesh.Mesh, domainSizeM, aoiSizeM float64) (float64, error) {
	aoiRadius := aoiSizeM / 2
	transitionEnd := domainSizeM/2 - EdgeBufferM
	if transitionEnd <= aoiRadius {
		return 0, fmt.Errorf("domain %gm leaves no transition band around a %gm AOI", domainSizeM, aoiSizeM)
	}

	bmin, bmax := m.Bounds()
	centerX := (bmin.X + bmax.X) / 2
	centerY := (bmin.Y + bmax.Y) / 2

	dists := make([]float64, len(m.Points))
	var aoiElevations []float64
	for i, p := range m.Points {
		dists[i] = math.Hypot(p.X-centerX, p.Y-centerY)
		if dists[i] <= aoiRadius {
			aoiElevations = append(aoiElevations, p.Z)
		}
	}
	if len(aoiElevations) == 0 {
		return 0, fmt.Errorf("no vertices within the %gm AOI radius", aoiRadius)
	}

	reference := referenceElevation(aoiElevations)

	for i := range m.Points {
		w := BlendWeight(dists[i], aoiRadius, transitionEnd)
		switch {
		case w == 0:
			// untouched core, bit-exact
		case w == 1:
			m.Points[i].Z = reference
		default:
			m.Points[i].Z = m.Points[i].Z*(1-w) + reference*w
		}
	}

	return reference, nil
}

// referenceElevation trims the lowest 10% and highest 20% of the samples by
// value and averages the rest.
func referenceElevation(elevations []float64) float64 {
	sorted := append([]float64(nil), elevations...)
	sort.Float64s(sorted)

	low := stat.Quantile(0.10, stat.Empirical, sorted, nil)
	high := stat.Quantile(0.80, stat.Empirical, sorted, nil)

	var kept []float64
	for _, v := range sorted {
		if v >= low && v <= high {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return stat.Mean(sorted, nil)
	}
	return stat.Mean(kept, nil)
}
