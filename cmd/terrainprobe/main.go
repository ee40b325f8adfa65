// Package main loads a terrain mesh and prints the ground height on a grid,
// for checking meshes and transforms before they go into a scene.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/config"
	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/movement"
	"github.com/cory-johannsen/actioncore/internal/observability"
)

func main() {
	mesh := flag.String("mesh", "", "path to an OBJ terrain mesh")
	scale := flag.Float64("scale", 1, "uniform mesh scale")
	tx := flag.Float64("tx", 0, "mesh translation x")
	ty := flag.Float64("ty", 0, "mesh translation y")
	tz := flag.Float64("tz", 0, "mesh translation z")
	minX := flag.Float64("min-x", -500, "grid minimum x")
	minZ := flag.Float64("min-z", -500, "grid minimum z")
	maxX := flag.Float64("max-x", 500, "grid maximum x")
	maxZ := flag.Float64("max-z", 500, "grid maximum z")
	step := flag.Float64("step", 100, "grid spacing")
	y := flag.Float64("y", 0, "height the downward probes are measured from")
	probe := flag.Float64("probe", movement.DefaultParams().ProbeHeight, "probe height above y")
	flag.Parse()

	if *step <= 0 || *minX > *maxX || *minZ > *maxZ {
		log.Fatalf("invalid grid: step=%g x=[%g,%g] z=[%g,%g]", *step, *minX, *maxX, *minZ, *maxZ)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	bounds := geom.NewAABB(geom.V(*minX, *y, *minZ), geom.V(*maxX, *y, *maxZ))
	xf := collision.Transform{Scale: *scale, Translation: geom.V(*tx, *ty, *tz)}
	terrain := collision.LoadTerrain(*mesh, xf, bounds, logger)
	logger.Info("probing terrain",
		zap.Int("triangles", terrain.Len()),
		zap.Bool("flat_proxy", terrain.IsFallback()),
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "z\\x\t")
	for x := *minX; x <= *maxX; x += *step {
		fmt.Fprintf(w, "%.0f\t", x)
	}
	fmt.Fprintln(w)
	for z := *minZ; z <= *maxZ; z += *step {
		fmt.Fprintf(w, "%.0f\t", z)
		for x := *minX; x <= *maxX; x += *step {
			fmt.Fprintf(w, "%s\t", cell(terrain, geom.V(x, *y, z), *probe))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("writing grid: %v", err)
	}
}

func cell(t *collision.Terrain, pos geom.Vec3, probe float64) string {
	h, ok := t.GroundBelow(pos, probe)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", h)
}
