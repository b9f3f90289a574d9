//go:build ignore

// generate_testdata.go creates standard workspace datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small/   (10 targets, ~40 passes)
//	testdata/benchmark/medium/  (100 targets, ~600 passes)
//	testdata/benchmark/large/   (500 targets, ~4000 passes)
//	testdata/benchmark/huge/    (2000 targets, ~20000 passes)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/orbview/pkg/testutil"
)

type datasetSpec struct {
	name            string
	targets         int
	passesPerTarget int
	satellites      int
}

var datasets = []datasetSpec{
	{"small", 10, 4, 3},
	{"medium", 100, 6, 8},
	{"large", 500, 8, 16},
	{"huge", 2000, 10, 32},
}

func main() {
	outputDir := filepath.Join("testdata", "benchmark")

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d targets)...\n", ds.name, ds.targets)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.targets) // Reproducible per-size
		cfg.Targets = ds.targets
		cfg.PassesPerTarget = ds.passesPerTarget
		cfg.Satellites = ds.satellites
		cfg.GroundStations = ds.satellites / 2
		cfg.Orders = 3

		snap := testutil.New(cfg).Snapshot()
		dir := filepath.Join(outputDir, ds.name)
		if err := testutil.SaveWorkspace(dir, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dir, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d passes, %d orders)\n", dir, len(snap.Passes()), len(snap.Orders))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
