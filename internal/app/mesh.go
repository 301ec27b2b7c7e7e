// Package app wires the terrain pipeline into CLI subcommands.
package app

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/openwindlab/demforge/internal/logger"
	"github.com/openwindlab/demforge/internal/metajson"
	"github.com/openwindlab/demforge/internal/pipeline"
)

// RunMesh is the entrypoint of the "mesh" subcommand: one location, one
// rotation, two mesh files.
func RunMesh(flagSet *flag.FlagSet) {
	demPtr := flagSet.String("dem", "", "Path to source elevation raster")
	latPtr := flagSet.Float64("lat", 0, "Center latitude (WGS84 degrees)")
	lonPtr := flagSet.Float64("lon", 0, "Center longitude (WGS84 degrees)")
	cropPtr := flagSet.Float64("crop", 0, "Crop side length in km")
	rotPtr := flagSet.Float64("rotation", 0, "Rotation in degrees [0,360)")
	outPtr := flagSet.String("out", "", "Path to output directory")
	smoothPtr := flagSet.Bool("smooth", true, "Denoise the elevation window before meshing")
	sigmaPtr := flagSet.Float64("sigma", pipeline.DefaultSigma, "Denoising strength")
	aoiPtr := flagSet.Float64("aoi", pipeline.DefaultAOISizeM, "Area-of-interest size in meters")
	domainPtr := flagSet.Float64("domain", pipeline.DefaultDomainSizeM, "Simulation domain size in meters")
	cachePtr := flagSet.String("utm-cache", "", "Optional path for the reprojected raster cache")
	levelPtr := flagSet.String("log-level", "info", "Log level (debug, info, warn, error)")

	flagSet.Parse(os.Args[2:])

	// make sure the required flags are present
	if *demPtr == "" || *outPtr == "" || *cropPtr == 0 {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	zl, err := logger.New(*levelPtr, "")
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctx := pipeline.Context{
		RasterPath:           *demPtr,
		CenterLat:            *latPtr,
		CenterLon:            *lonPtr,
		CropKM:               *cropPtr,
		RotationDeg:          *rotPtr,
		Smooth:               *smoothPtr,
		Sigma:                *sigmaPtr,
		AOISizeM:             *aoiPtr,
		DomainSizeM:          *domainPtr,
		FlipY:                true,
		RawMeshPath:          filepath.Join(*outPtr, fmt.Sprintf("crop%gkm_%gdeg.stl", *cropPtr, *rotPtr)),
		FinalMeshPath:        filepath.Join(*outPtr, "terrain.stl"),
		ReprojectedCachePath: *cachePtr,
	}

	start := time.Now()
	fmt.Println("▶️  Building terrain surface")

	orch := pipeline.New(zl, metajson.NewRecorder(zl))
	if err := orch.Run(&ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println("✔️  Wrote", ctx.RawMeshPath)
	fmt.Println("✔️  Wrote", ctx.FinalMeshPath)
	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
