package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecorder struct {
	started   int
	completed int
	failed    int
	lastErr   error
}

func (r *fakeRecorder) Start(*Context) { r.started++ }
func (r *fakeRecorder) Complete(*Context, time.Duration) {
	r.completed++
}
func (r *fakeRecorder) Fail(_ *Context, _ time.Duration, err error) {
	r.failed++
	r.lastErr = err
}

func writeDummyRaster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dem.tif")
	require.NoError(t, os.WriteFile(path, []byte("not a real raster"), 0o644))
	return path
}

func validContext(t *testing.T) Context {
	dir := t.TempDir()
	return Context{
		RasterPath:    writeDummyRaster(t),
		CenterLat:     52.5,
		CenterLon:     13.4,
		CropKM:        2,
		RotationDeg:   45,
		RawMeshPath:   filepath.Join(dir, "raw.stl"),
		FinalMeshPath: filepath.Join(dir, "terrain.stl"),
	}
}

func TestContextApplyDefaults(t *testing.T) {
	var ctx Context
	ctx.ApplyDefaults()

	assert.Equal(t, DefaultSigma, ctx.Sigma)
	assert.Equal(t, DefaultAOISizeM, ctx.AOISizeM)
	assert.Equal(t, DefaultDomainSizeM, ctx.DomainSizeM)
}

func TestContextValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Context)
		wantErr string
	}{
		{"valid", func(c *Context) {}, ""},
		{"missing raster", func(c *Context) { c.RasterPath = "/no/such/file.tif" }, "not found"},
		{"zero crop", func(c *Context) { c.CropKM = 0 }, "crop size"},
		{"negative crop", func(c *Context) { c.CropKM = -3 }, "crop size"},
		{"latitude out of range", func(c *Context) { c.CenterLat = 91 }, "latitude"},
		{"longitude out of range", func(c *Context) { c.CenterLon = -200 }, "longitude"},
		{"rotation negative", func(c *Context) { c.RotationDeg = -1 }, "rotation"},
		{"rotation wrapped", func(c *Context) { c.RotationDeg = 360 }, "rotation"},
		{"missing outputs", func(c *Context) { c.FinalMeshPath = "" }, "output mesh paths"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := validContext(t)
			tt.mutate(&ctx)

			err := ctx.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateMissingRasterIsInputNotFound(t *testing.T) {
	ctx := validContext(t)
	ctx.RasterPath = "/no/such/file.tif"

	err := ctx.Validate()
	assert.True(t, errors.Is(err, ErrInputNotFound))
}

func TestRunFailsAndRecords(t *testing.T) {
	rec := &fakeRecorder{}
	orch := New(zap.NewNop(), rec)

	ctx := validContext(t)
	ctx.CropKM = 0 // fails validation before any I/O

	err := orch.Run(&ctx)
	require.Error(t, err)

	assert.Equal(t, StateFailed, orch.State())
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 0, rec.completed)
	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, err, rec.lastErr)

	// no checkpoint was written
	assert.NoFileExists(t, ctx.RawMeshPath)
	assert.NoFileExists(t, ctx.FinalMeshPath)
}

func TestRunMissingInputFailsEarly(t *testing.T) {
	rec := &fakeRecorder{}
	orch := New(zap.NewNop(), rec)

	ctx := validContext(t)
	ctx.RasterPath = filepath.Join(t.TempDir(), "gone.tif")

	err := orch.Run(&ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))
	assert.Equal(t, []State{StateFailed}, orch.Visited())
}

func TestNilRecorderIsSafe(t *testing.T) {
	orch := New(zap.NewNop(), nil)

	ctx := validContext(t)
	ctx.CropKM = -1
	assert.Error(t, orch.Run(&ctx))
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateReprojecting, "reprojecting"},
		{StateCropping, "cropping"},
		{StateSmoothing, "smoothing"},
		{StateMeshing, "meshing"},
		{StateSavedRaw, "saved_raw"},
		{StateRealigning, "realigning"},
		{StateSavedFinal, "saved_final"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
