package app

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/openwindlab/demforge/internal/mesh"
)

// RunRealign is the entrypoint of the "realign" subcommand: counter-rotate
// an existing rotated mesh file back to axis-aligned coordinates.
func RunRealign(flagSet *flag.FlagSet) {
	inPtr := flagSet.String("in", "", "Path to rotated input mesh (STL)")
	outPtr := flagSet.String("out", "", "Path for the realigned output mesh (STL)")
	rotPtr := flagSet.Float64("rotation", 0, "Original crop rotation in degrees")
	flipXPtr := flagSet.Bool("flipx", false, "Negate the X axis after rotation")
	flipYPtr := flagSet.Bool("flipy", true, "Negate the Y axis after rotation")

	flagSet.Parse(os.Args[2:])

	if *inPtr == "" || *outPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	start := time.Now()

	fmt.Println("▶️  Loading mesh")
	m, err := mesh.ReadSTL(*inPtr)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("▶️  Counter-rotating by %g°\n", -*rotPtr)
	aligned := mesh.Realign(m, *rotPtr, *flipXPtr, *flipYPtr)

	if err := mesh.WriteSTL(*outPtr, aligned); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Wrote", *outPtr)

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}
