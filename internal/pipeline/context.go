package pipeline

import (
	"fmt"
	"math"

	"github.com/openwindlab/demforge/internal/utils"
)

// Defaults for optional context fields.
const (
	DefaultSigma       = 2.0
	DefaultAOISizeM    = 8000.0
	DefaultDomainSizeM = 30000.0
)

// Context binds everything one invocation needs: source raster, crop
// parameters, smoothing settings and output paths. It is the unit of work
// executed once per batch item; each invocation is independent of every
// other except for files written to disk.
type Context struct {
	RasterPath string

	CenterLat float64
	CenterLon float64

	CropKM      float64
	RotationDeg float64

	Smooth bool
	Sigma  float64

	AOISizeM    float64
	DomainSizeM float64

	// FlipY defaults to true on the final mesh to match downstream axis
	// handedness.
	FlipX bool
	FlipY bool

	RawMeshPath   string
	FinalMeshPath string

	// ReprojectedCachePath, when set, persists the UTM-warped raster so
	// later invocations against the same source skip the warp. Concurrent
	// invocations sharing the same cache path must be serialized by the
	// caller.
	ReprojectedCachePath string
}

// ApplyDefaults fills unset optional fields.
func (c *Context) ApplyDefaults() {
	if c.Sigma == 0 {
		c.Sigma = DefaultSigma
	}
	if c.AOISizeM == 0 {
		c.AOISizeM = DefaultAOISizeM
	}
	if c.DomainSizeM == 0 {
		c.DomainSizeM = DefaultDomainSizeM
	}
}

// Validate checks the context before any work starts.
func (c *Context) Validate() error {
	if !utils.IsFile(c.RasterPath) {
		return fmt.Errorf("%w: %s", ErrInputNotFound, c.RasterPath)
	}
	if c.CropKM <= 0 {
		return fmt.Errorf("crop size must be positive, got %g km", c.CropKM)
	}
	if c.CenterLat < -90 || c.CenterLat > 90 || math.IsNaN(c.CenterLat) {
		return fmt.Errorf("latitude %g out of range", c.CenterLat)
	}
	if c.CenterLon < -180 || c.CenterLon > 180 || math.IsNaN(c.CenterLon) {
		return fmt.Errorf("longitude %g out of range", c.CenterLon)
	}
	if c.RotationDeg < 0 || c.RotationDeg >= 360 {
		return fmt.Errorf("rotation %g out of [0, 360)", c.RotationDeg)
	}
	if c.RawMeshPath == "" || c.FinalMeshPath == "" {
		return fmt.Errorf("both output mesh paths must be set")
	}
	return nil
}
