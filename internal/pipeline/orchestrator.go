// Package pipeline sequences one terrain-surface invocation: reproject if
// needed, crop, smooth, mesh, save, realign, save.
package pipeline

import (
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/openwindlab/demforge/internal/crop"
	"github.com/openwindlab/demforge/internal/mesh"
	"github.com/openwindlab/demforge/internal/proj"
	"github.com/openwindlab/demforge/internal/raster"
	"github.com/openwindlab/demforge/internal/smooth"
)

// ErrInputNotFound marks a missing source raster or output prerequisite.
var ErrInputNotFound = raster.ErrInputNotFound

// State tracks orchestrator progress. Transitions are synchronous and
// strictly forward; Failed is reachable from any state.
type State int

const (
	StateIdle State = iota
	StateReprojecting
	StateCropping
	StateSmoothing
	StateMeshing
	StateSavedRaw
	StateRealigning
	StateSavedFinal
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:         "idle",
	StateReprojecting: "reprojecting",
	StateCropping:     "cropping",
	StateSmoothing:    "smoothing",
	StateMeshing:      "meshing",
	StateSavedRaw:     "saved_raw",
	StateRealigning:   "realigning",
	StateSavedFinal:   "saved_final",
	StateDone:         "done",
	StateFailed:       "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Recorder receives provenance for one invocation. Implementations decide
// where the record lands; the orchestrator only reports.
type Recorder interface {
	Start(ctx *Context)
	Complete(ctx *Context, elapsed time.Duration)
	Fail(ctx *Context, elapsed time.Duration, err error)
}

// NopRecorder discards all provenance.
type NopRecorder struct{}

func (NopRecorder) Start(*Context)                      {}
func (NopRecorder) Complete(*Context, time.Duration)    {}
func (NopRecorder) Fail(*Context, time.Duration, error) {}

// Orchestrator runs invocations one at a time on the calling goroutine. It
// holds the only cross-step state of the pipeline.
type Orchestrator struct {
	log     *zap.Logger
	rec     Recorder
	state   State
	visited []State
}

// New builds an orchestrator. A nil recorder discards provenance.
func New(log *zap.Logger, rec Recorder) *Orchestrator {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Orchestrator{log: log, rec: rec, state: StateIdle}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Visited returns the states entered during the last run, in order.
func (o *Orchestrator) Visited() []State {
	return o.visited
}

func (o *Orchestrator) enter(s State) {
	o.state = s
	o.visited = append(o.visited, s)
	o.log.Debug("pipeline state", zap.Stringer("state", s))
}

// Run executes one invocation. Checkpoints written before a failure are
// kept; the error is surfaced to the caller without retry.
func (o *Orchestrator) Run(ctx *Context) error {
	ctx.ApplyDefaults()

	o.state = StateIdle
	o.visited = o.visited[:0]
	start := time.Now()
	o.rec.Start(ctx)

	if err := o.run(ctx); err != nil {
		o.enter(StateFailed)
		o.rec.Fail(ctx, time.Since(start), err)
		return err
	}

	o.enter(StateDone)
	o.rec.Complete(ctx, time.Since(start))
	return nil
}

func (o *Orchestrator) run(ctx *Context) error {
	if err := ctx.Validate(); err != nil {
		return err
	}

	rasterPath, err := o.reprojectIfNeeded(ctx)
	if err != nil {
		return err
	}

	o.enter(StateCropping)
	ds, err := raster.Open(rasterPath)
	if err != nil {
		return err
	}
	defer ds.Close()

	wkt, err := ds.ProjectionWKT()
	if err != nil {
		return err
	}
	centerX, centerY, err := proj.ToProjectedWKT(ctx.CenterLat, ctx.CenterLon, wkt)
	if err != nil {
		return err
	}

	fp := crop.Footprint{
		Center:      orb.Point{centerX, centerY},
		SideM:       ctx.CropKM * 1000,
		RotationDeg: ctx.RotationDeg,
	}
	grid, mask, err := crop.Extract(ds, fp, o.log)
	if err != nil {
		return err
	}

	if ctx.Smooth {
		o.enter(StateSmoothing)
		smooth.Denoise(grid, mask, ctx.Sigma)
	}

	o.enter(StateMeshing)
	m, err := mesh.Build(grid, mask)
	if err != nil {
		return err
	}
	o.log.Info("built terrain mesh",
		zap.Int("points", len(m.Points)),
		zap.Int("faces", len(m.Faces)))

	reference, err := smooth.BoundaryBlend(m, ctx.DomainSizeM, ctx.AOISizeM)
	if err != nil {
		return err
	}
	o.log.Info("blended boundary elevation", zap.Float64("reference_m", reference))

	if err := mesh.WriteSTL(ctx.RawMeshPath, m); err != nil {
		return err
	}
	o.enter(StateSavedRaw)

	o.enter(StateRealigning)
	aligned := mesh.Realign(m, ctx.RotationDeg, ctx.FlipX, ctx.FlipY)

	if err := mesh.WriteSTL(ctx.FinalMeshPath, aligned); err != nil {
		return err
	}
	o.enter(StateSavedFinal)

	return nil
}

// reprojectIfNeeded warps a geographic source raster into its UTM zone and
// returns the raster to crop from. Already-projected rasters pass through
// untouched, so the warp happens at most once per invocation.
func (o *Orchestrator) reprojectIfNeeded(ctx *Context) (string, error) {
	ds, err := raster.Open(ctx.RasterPath)
	if err != nil {
		return "", err
	}
	geographic := ds.Geographic()
	if cerr := ds.Close(); cerr != nil {
		return "", cerr
	}

	if !geographic {
		o.log.Debug("raster already projected", zap.String("path", ctx.RasterPath))
		return ctx.RasterPath, nil
	}

	o.enter(StateReprojecting)
	path, epsg, err := proj.ReprojectToUTM(ctx.RasterPath, ctx.ReprojectedCachePath, o.log)
	if err != nil {
		return "", err
	}
	o.log.Info("raster reprojected", zap.String("path", path), zap.Int("epsg", epsg))
	return path, nil
}
