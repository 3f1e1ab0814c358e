package cairn

import (
	"context"
	"log/slog"

	"github.com/aretw0/cairn/internal/platform"
	"github.com/aretw0/cairn/pkg/adapters/caltopo"
	"github.com/aretw0/cairn/pkg/adapters/fs"
	"github.com/aretw0/cairn/pkg/core"
	"github.com/aretw0/cairn/pkg/icons"
)

// --- Types ---

// Document is the canonical in-memory map model.
type Document = core.Document

// Waypoint, Track and Shape are the item variants a Document holds.
type (
	Waypoint = core.Waypoint
	Track    = core.Track
	Shape    = core.Shape
)

// RunSpec names the inputs and outputs of a single conversion.
type RunSpec = platform.RunSpec

// RunResult reports where a run wrote its outputs and what it dropped.
type RunResult = platform.RunResult

// Pipeline runs the onX → CalTopo conversion.
type Pipeline = platform.Pipeline

// DescriptionMode selects what lands in a feature's description.
type DescriptionMode = caltopo.DescriptionMode

// RouteColorStrategy selects the stroke for tracks without a color.
type RouteColorStrategy = caltopo.RouteColorStrategy

const (
	DescriptionNotesOnly = caltopo.DescriptionNotesOnly
	DescriptionDebug     = caltopo.DescriptionDebug

	RouteColorsPalette     = caltopo.RouteColorsPalette
	RouteColorsDefaultBlue = caltopo.RouteColorsDefaultBlue
	RouteColorsNone        = caltopo.RouteColorsNone
)

// --- Configuration ---

// Option defines a functional option for configuring a Pipeline.
type Option = platform.Option

// WithLogger sets the logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithTracer attaches a trace sink to every run.
func WithTracer(tr core.Tracer) Option {
	return platform.WithTracer(tr)
}

// WithIconRegistry replaces the embedded icon mapping table.
func WithIconRegistry(reg *icons.Registry) Option {
	return platform.WithIconRegistry(reg)
}

// WithDescriptionMode selects the feature description rendering.
func WithDescriptionMode(mode DescriptionMode) Option {
	return platform.WithDescriptionMode(mode)
}

// WithRouteColorStrategy selects the stroke fallback for colorless tracks.
func WithRouteColorStrategy(s RouteColorStrategy) Option {
	return platform.WithRouteColorStrategy(s)
}

// WithWaypointDedup enables or disables the waypoint dedup pass.
func WithWaypointDedup(enabled bool) Option {
	return platform.WithWaypointDedup(enabled)
}

// WithShapeDedup enables or disables the shape dedup pass.
func WithShapeDedup(enabled bool) Option {
	return platform.WithShapeDedup(enabled)
}

// WithOutputDir sets the default output directory.
func WithOutputDir(dir string) Option {
	return platform.WithOutputDir(dir)
}

// WithBaseName sets the default output base filename.
func WithBaseName(name string) Option {
	return platform.WithBaseName(name)
}

// WithKML names a supplemental KML export to merge into every run.
func WithKML(path string) Option {
	return platform.WithKML(path)
}

// --- Factory ---

// NewPipeline builds a conversion pipeline from functional options.
func NewPipeline(opts ...Option) *Pipeline {
	return platform.NewPipeline(opts...)
}

// --- Operations ---

// Migrate converts one onX GPX export into CalTopo-importable GeoJSON.
// When a sibling KML with the same stem exists it is merged in
// automatically; otherwise a WithKML option may name one.
func Migrate(ctx context.Context, gpxPath string, opts ...Option) (*RunResult, error) {
	spec := RunSpec{GPXPath: gpxPath}
	if kml, ok := fs.FindCompanionKML(gpxPath); ok {
		spec.KMLPath = kml
	}
	return platform.NewPipeline(opts...).Run(ctx, spec)
}
