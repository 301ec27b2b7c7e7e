// Package proj selects UTM zones and reprojects rasters and points into
// them. All projection math is delegated to GDAL through godal.
package proj

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"

	"github.com/openwindlab/demforge/internal/raster"
	"github.com/openwindlab/demforge/internal/utils"
)

// ErrReprojection marks a failed raster reprojection.
var ErrReprojection = errors.New("reprojection failed")

// UTMZone returns the UTM zone number covering the given longitude.
func UTMZone(lon float64) int {
	return int(math.Floor((lon+180)/6)) + 1
}

// UTMEPSG returns the EPSG code of the UTM zone covering the given
// coordinate: 326xx on the northern hemisphere, 327xx on the southern.
func UTMEPSG(lat, lon float64) int {
	zone := UTMZone(lon)
	if lat >= 0 {
		return 32600 + zone
	}
	return 32700 + zone
}

// ToProjectedEPSG converts a WGS84 coordinate to the projected system with
// the given EPSG code.
func ToProjectedEPSG(lat, lon float64, epsg int) (x, y float64, err error) {
	dst, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return 0, 0, fmt.Errorf("creating SRS for EPSG:%d: %w", epsg, err)
	}
	defer dst.Close()
	return toProjected(lat, lon, dst)
}

// ToProjectedWKT converts a WGS84 coordinate to the projected system
// described by the given WKT.
func ToProjectedWKT(lat, lon float64, wkt string) (x, y float64, err error) {
	dst, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return 0, 0, fmt.Errorf("creating SRS from WKT: %w", err)
	}
	defer dst.Close()
	return toProjected(lat, lon, dst)
}

func toProjected(lat, lon float64, dst *godal.SpatialRef) (float64, float64, error) {
	src, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return 0, 0, fmt.Errorf("creating SRS for EPSG:4326: %w", err)
	}
	defer src.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return 0, 0, fmt.Errorf("creating coordinate transform: %w", err)
	}
	defer tr.Close()

	xs := []float64{lon}
	ys := []float64{lat}
	zs := []float64{}
	success := make([]bool, 1)
	if err := tr.TransformEx(xs, ys, zs, success); err != nil {
		return 0, 0, fmt.Errorf("transforming (%g, %g): %w", lat, lon, err)
	}
	return projectedPoint(xs, ys, success, lat, lon)
}

// projectedPoint extracts the transformed coordinate. TransformEx reports
// per-point failures through the success flags with a nil error, leaving
// garbage in the coordinate slices, so an unsuccessful point must be
// rejected here rather than passed on.
func projectedPoint(xs, ys []float64, success []bool, lat, lon float64) (float64, float64, error) {
	if len(success) == 0 || !success[0] {
		return 0, 0, fmt.Errorf("transforming (%g, %g): point not transformable", lat, lon)
	}
	return xs[0], ys[0], nil
}

// UTMPathFor derives the default cache path for the reprojected copy of a
// source raster.
func UTMPathFor(srcPath string) string {
	ext := filepath.Ext(srcPath)
	return strings.TrimSuffix(srcPath, ext) + "_utm" + ext
}

// ReprojectToUTM warps a geographic raster into the UTM zone covering its
// center and writes it to dstPath (derived from srcPath when empty). An
// existing file at dstPath is reused as-is, so repeated invocations against
// the same source raster warp at most once; concurrent invocations sharing a
// cache path must be serialized by the caller.
func ReprojectToUTM(srcPath, dstPath string, log *zap.Logger) (string, int, error) {
	src, err := raster.Open(srcPath)
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	gt, err := src.GeoTransform()
	if err != nil {
		return "", 0, err
	}
	cols, rows := src.Size()

	// The source is geographic, so the raster center is already a lon/lat.
	centerLon := gt[0] + float64(cols)/2*gt[1]
	centerLat := gt[3] + float64(rows)/2*gt[5]
	epsg := UTMEPSG(centerLat, centerLon)

	if dstPath == "" {
		dstPath = UTMPathFor(srcPath)
	}

	if utils.IsFile(dstPath) {
		log.Debug("reusing reprojected raster", zap.String("path", dstPath))
		return dstPath, epsg, nil
	}

	log.Info("reprojecting raster to UTM",
		zap.String("src", srcPath),
		zap.String("dst", dstPath),
		zap.Int("epsg", epsg))

	warped, err := src.Warp(dstPath, []string{
		"-t_srs", fmt.Sprintf("EPSG:%d", epsg),
		"-r", "bilinear",
		"-of", "GTiff",
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s to EPSG:%d: %v", ErrReprojection, srcPath, epsg, err)
	}
	if err := warped.Close(); err != nil {
		return "", 0, fmt.Errorf("%w: closing %s: %v", ErrReprojection, dstPath, err)
	}

	return dstPath, epsg, nil
}
