// Package config loads batch run configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/openwindlab/demforge/internal/pipeline"
	"github.com/openwindlab/demforge/internal/proj"
)

// CenterConfig is the geographic crop center.
type CenterConfig struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config describes one batch: one location and raster, any number of
// rotations.
type Config struct {
	Raster      string        `yaml:"raster"`
	Center      CenterConfig  `yaml:"center"`
	CropKM      float64       `yaml:"crop_km"`
	Rotations   []float64     `yaml:"rotations"`
	Smooth      bool          `yaml:"smooth"`
	Sigma       float64       `yaml:"sigma"`
	AOISizeM    float64       `yaml:"aoi_size_m"`
	DomainSizeM float64       `yaml:"domain_size_m"`
	OutputDir   string        `yaml:"output_dir"`
	Workers     int           `yaml:"workers"`
	Logging     LoggingConfig `yaml:"logging"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Rotations:   []float64{0},
		Smooth:      true,
		Sigma:       pipeline.DefaultSigma,
		AOISizeM:    pipeline.DefaultAOISizeM,
		DomainSizeM: pipeline.DefaultDomainSizeM,
		OutputDir:   "output",
		Workers:     1,
		Logging:     LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks fields shared by all invocations of the batch.
func (c *Config) Validate() error {
	if c.Raster == "" {
		return fmt.Errorf("raster path must be set")
	}
	if c.CropKM <= 0 {
		return fmt.Errorf("crop_km must be positive, got %g", c.CropKM)
	}
	if len(c.Rotations) == 0 {
		return fmt.Errorf("at least one rotation is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Contexts expands the batch into one invocation context per rotation.
// Each rotation gets a private output directory, so invocations never
// contend on output files; the reprojected-raster cache path is shared and
// must be prepared before invocations run concurrently.
func (c *Config) Contexts() []pipeline.Context {
	ctxs := make([]pipeline.Context, 0, len(c.Rotations))
	for _, rot := range c.Rotations {
		dir := filepath.Join(c.OutputDir, fmt.Sprintf("rot_%05.1f", rot))
		ctxs = append(ctxs, pipeline.Context{
			RasterPath:           c.Raster,
			CenterLat:            c.Center.Lat,
			CenterLon:            c.Center.Lon,
			CropKM:               c.CropKM,
			RotationDeg:          rot,
			Smooth:               c.Smooth,
			Sigma:                c.Sigma,
			AOISizeM:             c.AOISizeM,
			DomainSizeM:          c.DomainSizeM,
			FlipY:                true,
			RawMeshPath:          filepath.Join(dir, fmt.Sprintf("crop%gkm_%gdeg.stl", c.CropKM, rot)),
			FinalMeshPath:        filepath.Join(dir, "terrain.stl"),
			ReprojectedCachePath: proj.UTMPathFor(c.Raster),
		})
	}
	return ctxs
}
