package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/cairn"
	"github.com/aretw0/cairn/pkg/icons"
	"github.com/aretw0/cairn/pkg/trace"
)

var (
	migrateKML        string
	migrateOutDir     string
	migrateName       string
	migrateDedupeWpts bool
	migrateDedupeShps bool
	migrateTrace      string
	migrateDescMode   string
	migrateRouteCol   string
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate <export.gpx>",
	Short: "Convert an onX GPX (+ optional KML) export into CalTopo GeoJSON",
	Long: `Migrate an onX Backcountry export into a CalTopo-importable GeoJSON.

Outputs:
- <name>.json (primary, deduped by default)
- <name>_dropped_shapes.json (secondary, dropped duplicates)
- <name>_SUMMARY.md (human-readable explanation of dedup choices)
- optional NDJSON trace`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadToolConfig()

		outDir := migrateOutDir
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		descMode := migrateDescMode
		if descMode == "" {
			descMode = cfg.DescriptionMode
		}
		routeColors := migrateRouteCol
		if routeColors == "" {
			routeColors = cfg.RouteColors
		}

		opts := []cairn.Option{
			cairn.WithLogger(slog.Default()),
			cairn.WithOutputDir(outDir),
			cairn.WithBaseName(migrateName),
			cairn.WithWaypointDedup(migrateDedupeWpts),
			cairn.WithShapeDedup(migrateDedupeShps),
			cairn.WithDescriptionMode(cairn.DescriptionMode(descMode)),
			cairn.WithRouteColorStrategy(cairn.RouteColorStrategy(routeColors)),
		}
		if migrateKML != "" {
			opts = append(opts, cairn.WithKML(migrateKML))
		}
		if cfg.IconMappings != "" {
			reg, err := icons.Load(cfg.IconMappings)
			if err != nil {
				fatal("Failed to load icon mappings", err)
			}
			opts = append(opts, cairn.WithIconRegistry(reg))
		}

		var tw *trace.Writer
		if migrateTrace != "" {
			var err error
			tw, err = trace.NewWriter(migrateTrace)
			if err != nil {
				fatal("Failed to open trace file", err)
			}
			opts = append(opts, cairn.WithTracer(tw))
		}

		res, err := cairn.Migrate(context.Background(), args[0], opts...)
		if tw != nil {
			if cerr := tw.Close(); cerr != nil && err == nil {
				fatal("Failed to write trace", cerr)
			}
		}
		if err != nil {
			fatal("Migration failed", err)
		}

		fmt.Printf("Wrote %s (%d waypoints, %d tracks, %d shapes)\n",
			res.PrimaryPath, res.WaypointCount, res.TrackCount, res.ShapeCount)
		fmt.Printf("Dropped duplicates preserved in %s\n", res.DroppedPath)
		fmt.Printf("Decisions explained in %s\n", res.SummaryPath)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateKML, "kml", "", "Supplemental onX KML export (recommended for areas/polygons)")
	migrateCmd.Flags().StringVarP(&migrateOutDir, "output-dir", "o", "", "Output directory (default ./caltopo_ready)")
	migrateCmd.Flags().StringVar(&migrateName, "name", "", "Base filename for outputs (default: GPX stem)")
	migrateCmd.Flags().BoolVar(&migrateDedupeWpts, "dedupe-waypoints", true, "Deduplicate waypoints by fuzzy (name + rounded lat/lon) match")
	migrateCmd.Flags().BoolVar(&migrateDedupeShps, "dedupe-shapes", true, "Deduplicate shapes (polygons/lines) by fuzzy geometry match")
	migrateCmd.Flags().StringVar(&migrateTrace, "trace", "", "Write an NDJSON trace for debugging/replay")
	migrateCmd.Flags().StringVar(&migrateDescMode, "description-mode", "", "Feature descriptions: notes_only or debug")
	migrateCmd.Flags().StringVar(&migrateRouteCol, "route-colors", "", "Stroke for colorless tracks: palette, default_blue or none")
}
