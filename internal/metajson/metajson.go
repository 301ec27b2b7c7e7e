// Package metajson records per-invocation provenance as a JSON sidecar
// next to the raw output mesh.
package metajson

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openwindlab/demforge/internal/pipeline"
	"github.com/openwindlab/demforge/internal/utils"
)

// Center holds the geographic crop center.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Params echoes the input parameters of one invocation.
type Params struct {
	RasterPath    string  `json:"dem_path"`
	RawMeshPath   string  `json:"output_mesh"`
	CropKM        float64 `json:"crop_km"`
	RotationDeg   float64 `json:"rotation_deg"`
	Center        Center  `json:"center_coordinates"`
	SmoothTerrain bool    `json:"smooth_terrain"`
}

// Record is the sidecar structure written next to the raw mesh.
type Record struct {
	CreatedTimestamp      string  `json:"created_timestamp"`
	InputParameters       Params  `json:"input_parameters"`
	Status                string  `json:"status"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds,omitempty"`
	Error                 string  `json:"error,omitempty"`
}

// SidecarPath derives the metadata path from the raw mesh path.
func SidecarPath(meshPath string) string {
	return strings.TrimSuffix(meshPath, ".stl") + "_metadata.json"
}

// Recorder implements pipeline.Recorder by writing the sidecar at every
// status change. Write failures are logged, never surfaced; provenance must
// not take the pipeline down.
type Recorder struct {
	log *zap.Logger
}

// NewRecorder builds a sidecar recorder.
func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{log: log}
}

func (r *Recorder) record(ctx *pipeline.Context) Record {
	return Record{
		CreatedTimestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		InputParameters: Params{
			RasterPath:    ctx.RasterPath,
			RawMeshPath:   ctx.RawMeshPath,
			CropKM:        ctx.CropKM,
			RotationDeg:   ctx.RotationDeg,
			Center:        Center{Lat: ctx.CenterLat, Lon: ctx.CenterLon},
			SmoothTerrain: ctx.Smooth,
		},
	}
}

// Start writes a "processing" record.
func (r *Recorder) Start(ctx *pipeline.Context) {
	rec := r.record(ctx)
	rec.Status = "processing"
	r.write(ctx, rec)
}

// Complete writes a "completed" record with the elapsed time.
func (r *Recorder) Complete(ctx *pipeline.Context, elapsed time.Duration) {
	rec := r.record(ctx)
	rec.Status = "completed"
	rec.ProcessingTimeSeconds = roundSeconds(elapsed)
	r.write(ctx, rec)
}

// Fail writes a "failed" record with the error text.
func (r *Recorder) Fail(ctx *pipeline.Context, elapsed time.Duration, err error) {
	rec := r.record(ctx)
	rec.Status = "failed"
	rec.ProcessingTimeSeconds = roundSeconds(elapsed)
	rec.Error = err.Error()
	r.write(ctx, rec)
}

func (r *Recorder) write(ctx *pipeline.Context, rec Record) {
	path := SidecarPath(ctx.RawMeshPath)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		r.log.Warn("marshaling metadata record", zap.Error(err))
		return
	}
	if err := utils.EnsureParentDir(path); err != nil {
		r.log.Warn("creating metadata directory", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.log.Warn("writing metadata record", zap.String("path", path), zap.Error(err))
	}
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond)) / float64(time.Second)
}
