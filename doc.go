// Package cairn is the Composition Root for the Cairn toolchain.
//
// It connects the pure conversion engines (pkg/core) with the format
// adapters (pkg/adapters) behind one pipeline the CLI and library callers
// share.
//
// Philosophy:
//
// Cairn migrates onX Backcountry exports into CalTopo without losing
// anything. Exports are messy: waypoints saved twice, areas present as
// both a GPX track and a KML polygon, icons CalTopo has no symbol for.
// Cairn collapses the duplicates, prefers the richer geometry, and writes
// everything it dropped to a secondary file plus a human-readable summary
// so every decision can be audited.
//
// Features:
//
//   - **Lossless by default**: dropped duplicates land in a secondary
//     GeoJSON, never the void.
//   - **Fuzzy dedup**: waypoints by normalized name + rounded position;
//     shapes by rotation- and direction-invariant geometry signatures.
//   - **GPX + KML merge**: polygons win over their GPX track shadows,
//     styles are enriched across sources.
//   - **Traceable**: every run can emit an NDJSON trace for replay and
//     diffing.
//   - **Atomic outputs**: temp-file + rename writes, guarded by a
//     per-directory run lock.
//
// Usage:
//
//	// One-call migration with defaults (dedup on, palette route colors)
//	res, err := cairn.Migrate(ctx, "export.gpx",
//		cairn.WithOutputDir("./caltopo_ready"),
//		cairn.WithLogger(logger),
//	)
//
//	// Or hold a pipeline for repeated runs
//	p := cairn.NewPipeline(cairn.WithShapeDedup(false))
//	res, err := p.Run(ctx, cairn.RunSpec{GPXPath: "export.gpx"})
package cairn
