package validate

import (
	"fmt"

	"github.com/openwindlab/demforge/internal/config"
	"github.com/openwindlab/demforge/internal/utils"
)

// RunConfig validates that a batch configuration points at usable inputs
// before any invocation starts.
func RunConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !utils.IsFile(cfg.Raster) {
		return fmt.Errorf("%s does not exist or is no file", cfg.Raster)
	}

	if cfg.Center.Lat < -90 || cfg.Center.Lat > 90 {
		return fmt.Errorf("center latitude %g out of range", cfg.Center.Lat)
	}
	if cfg.Center.Lon < -180 || cfg.Center.Lon > 180 {
		return fmt.Errorf("center longitude %g out of range", cfg.Center.Lon)
	}

	for _, rot := range cfg.Rotations {
		if rot < 0 || rot >= 360 {
			return fmt.Errorf("rotation %g out of [0, 360)", rot)
		}
	}

	return nil
}
