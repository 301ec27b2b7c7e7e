package app

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openwindlab/demforge/internal/config"
	"github.com/openwindlab/demforge/internal/logger"
	"github.com/openwindlab/demforge/internal/metajson"
	"github.com/openwindlab/demforge/internal/pipeline"
	"github.com/openwindlab/demforge/internal/proj"
	"github.com/openwindlab/demforge/internal/raster"
	"github.com/openwindlab/demforge/internal/validate"
)

// RunBatch is the entrypoint of the "batch" subcommand: one location, a
// list of rotations from a YAML config.
func RunBatch(flagSet *flag.FlagSet) {
	configPtr := flagSet.String("config", "", "Path to batch YAML config")

	flagSet.Parse(os.Args[2:])

	if *configPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	start := time.Now()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatal(err)
	}
	if err := validate.RunConfig(cfg); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Validated batch config")

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	ctxs := cfg.Contexts()

	// Warp the shared raster once up front. Invocations read the cache
	// concurrently, so the write must not race with them.
	if err := prepareCache(cfg, zl); err != nil {
		log.Fatal(err)
	}

	timer := time.Now()
	fmt.Printf("▶️  Running %d rotation(s) with %d worker(s)\n", len(ctxs), cfg.Workers)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	wg := sync.WaitGroup{}
	errs := make([]error, len(ctxs))

	for i := range ctxs {
		wg.Add(1)
		if err := sem.Acquire(context.Background(), 1); err != nil {
			log.Fatal(err)
		}

		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			orch := pipeline.New(zl, metajson.NewRecorder(zl))
			errs[i] = orch.Run(&ctxs[i])
		}(i)
	}

	wg.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			fmt.Printf("    ❌  Rotation %g° failed: %v\n", ctxs[i].RotationDeg, err)
		} else {
			fmt.Printf("    ✔️  Rotation %g° finished\n", ctxs[i].RotationDeg)
		}
	}
	fmt.Println("✔️  Processed rotations in", time.Since(timer).String())

	if failed > 0 {
		fmt.Printf("\n    ⚠️  %d of %d rotation(s) failed\n", failed, len(ctxs))
		os.Exit(1)
	}

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// prepareCache reprojects a geographic source raster into the shared cache
// path before any worker starts, serializing the only cross-invocation
// write of the batch.
func prepareCache(cfg *config.Config, zl *zap.Logger) error {
	ds, err := raster.Open(cfg.Raster)
	if err != nil {
		return err
	}
	geographic := ds.Geographic()
	if err := ds.Close(); err != nil {
		return err
	}
	if !geographic {
		return nil
	}

	fmt.Println("▶️  Reprojecting source raster to UTM")
	timer := time.Now()
	if _, _, err := proj.ReprojectToUTM(cfg.Raster, proj.UTMPathFor(cfg.Raster), zl); err != nil {
		return err
	}
	fmt.Println("✔️  Reprojected raster in", time.Since(timer).String())
	return nil
}
