package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/cairn"
)

func main() {
	waypoints := flag.Int("waypoints", 5000, "Number of waypoints to generate")
	tracks := flag.Int("tracks", 500, "Number of tracks to generate")
	dupRate := flag.Int("dup-every", 4, "Generate a fuzzy duplicate for every Nth feature")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "cairn_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	gpxPath := filepath.Join(benchDir, "bench.gpx")
	fmt.Printf("Generating %d waypoints + %d tracks (duplicate every %d) in %s...\n",
		*waypoints, *tracks, *dupRate, benchDir)
	startGen := time.Now()
	if err := os.WriteFile(gpxPath, generateGPX(*waypoints, *tracks, *dupRate), 0644); err != nil {
		panic(err)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// Quiet logger: we are measuring the pipeline, not the terminal.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	startRun := time.Now()
	res, err := cairn.Migrate(context.Background(), gpxPath,
		cairn.WithLogger(logger),
		cairn.WithOutputDir(filepath.Join(benchDir, "out")),
	)
	if err != nil {
		panic(err)
	}
	elapsed := time.Since(startRun)

	total := *waypoints + *tracks
	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Full run took: %v (%.0f features/s)\n", elapsed, float64(total)/elapsed.Seconds())
	fmt.Printf("Waypoint dedup: %d groups, %d dropped\n",
		res.WaypointReport.GroupCount(), res.WaypointReport.DroppedCount())
	fmt.Printf("Shape dedup: %d groups, %d dropped\n",
		len(res.ShapeReport.Groups), res.ShapeReport.DroppedCount())
	fmt.Printf("Output: %d waypoints, %d tracks -> %s\n",
		res.WaypointCount, res.TrackCount, res.PrimaryPath)
	fmt.Printf("--------------------------------------------------\n")
}

// generateGPX renders a synthetic onX-shaped export. Every dup-every'th
// feature gets a fuzzy duplicate: a recased name at the same rounded
// position for waypoints, a reversed copy for tracks.
func generateGPX(waypoints, tracks, dupEvery int) []byte {
	var b []byte
	app := func(format string, args ...any) {
		b = append(b, fmt.Sprintf(format+"\n", args...)...)
	}

	app(`<?xml version="1.0" encoding="UTF-8"?>`)
	app(`<gpx xmlns="http://www.topografix.com/GPX/1/1" xmlns:onx="https://wwww.OnXmaps.com/" version="1.1">`)

	for i := 0; i < waypoints; i++ {
		lat := 40.0 + float64(i%1000)*0.001
		lon := -120.0 - float64(i/1000)*0.001
		app(`  <wpt lat="%.6f" lon="%.6f"><name>Waypoint %d</name><desc>id=wp-%d</desc></wpt>`, lat, lon, i, i)
		if dupEvery > 0 && i%dupEvery == 0 {
			app(`  <wpt lat="%.6f" lon="%.6f"><name>WAYPOINT %d</name></wpt>`, lat, lon, i)
		}
	}

	for i := 0; i < tracks; i++ {
		lat := 42.0 + float64(i)*0.01
		app(`  <trk><name>Track %d</name><desc>id=trk-%d</desc><trkseg>`, i, i)
		app(`    <trkpt lat="%.6f" lon="-119.0"/><trkpt lat="%.6f" lon="-119.1"/><trkpt lat="%.6f" lon="-119.2"/>`, lat, lat+0.001, lat+0.002)
		app(`  </trkseg></trk>`)
		if dupEvery > 0 && i%dupEvery == 0 {
			app(`  <trk><name>Track %d</name><trkseg>`, i)
			app(`    <trkpt lat="%.6f" lon="-119.2"/><trkpt lat="%.6f" lon="-119.1"/><trkpt lat="%.6f" lon="-119.0"/>`, lat+0.002, lat+0.001, lat)
			app(`  </trkseg></trk>`)
		}
	}

	app(`</gpx>`)
	return b
}
