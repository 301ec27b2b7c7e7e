package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwindlab/demforge/internal/config"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	raster := filepath.Join(t.TempDir(), "dem.tif")
	require.NoError(t, os.WriteFile(raster, []byte("stub"), 0o644))

	cfg := config.Default()
	cfg.Raster = raster
	cfg.CropKM = 10
	cfg.Center.Lat = 45
	cfg.Center.Lon = 7
	return cfg
}

func TestRunConfigValid(t *testing.T) {
	assert.NoError(t, RunConfig(validConfig(t)))
}

func TestRunConfigMissingRaster(t *testing.T) {
	cfg := validConfig(t)
	cfg.Raster = filepath.Join(t.TempDir(), "missing.tif")

	err := RunConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRunConfigBadCoordinates(t *testing.T) {
	cfg := validConfig(t)
	cfg.Center.Lat = 95
	assert.Error(t, RunConfig(cfg))

	cfg = validConfig(t)
	cfg.Center.Lon = 200
	assert.Error(t, RunConfig(cfg))
}

func TestRunConfigBadRotation(t *testing.T) {
	cfg := validConfig(t)
	cfg.Rotations = []float64{0, 480}
	assert.Error(t, RunConfig(cfg))

	cfg = validConfig(t)
	cfg.Rotations = []float64{-10}
	assert.Error(t, RunConfig(cfg))
}
