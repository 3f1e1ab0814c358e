// Package platform wires the readers, engines and writers into the
// conversion pipeline the CLI and the root facade run. It owns the tool
// configuration, functional options and the human-readable run summary.
package platform

import (
	"log/slog"

	"github.com/aretw0/cairn/pkg/adapters/caltopo"
	"github.com/aretw0/cairn/pkg/core"
	"github.com/aretw0/cairn/pkg/icons"
)

// options holds the internal configuration for a Pipeline.
type options struct {
	logger          *slog.Logger
	tracer          core.Tracer
	registry        *icons.Registry
	descriptionMode caltopo.DescriptionMode
	routeColors     caltopo.RouteColorStrategy
	dedupeWaypoints bool
	dedupeShapes    bool

	// Run-scoped defaults, used when a RunSpec leaves the field empty.
	outDir   string
	baseName string
	kmlPath  string
}

// Option defines a functional option for configuring a Pipeline.
type Option func(*options)

// defaultOptions returns the default configuration: both dedup passes on,
// notes-only descriptions, palette route colors.
func defaultOptions() *options {
	return &options{
		logger:          nil,
		tracer:          core.NopTracer{},
		registry:        icons.Default(),
		descriptionMode: caltopo.DescriptionNotesOnly,
		routeColors:     caltopo.RouteColorsPalette,
		dedupeWaypoints: true,
		dedupeShapes:    true,
	}
}

// WithLogger sets the logger for the pipeline. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer attaches a trace sink. Every reader, engine and writer event
// of a run flows into it.
func WithTracer(tr core.Tracer) Option {
	return func(o *options) {
		if tr != nil {
			o.tracer = tr
		}
	}
}

// WithIconRegistry replaces the embedded icon mapping table.
func WithIconRegistry(reg *icons.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithDescriptionMode selects the feature description rendering.
func WithDescriptionMode(mode caltopo.DescriptionMode) Option {
	return func(o *options) {
		if mode != "" {
			o.descriptionMode = mode
		}
	}
}

// WithRouteColorStrategy selects the stroke fallback for colorless tracks.
func WithRouteColorStrategy(s caltopo.RouteColorStrategy) Option {
	return func(o *options) {
		if s != "" {
			o.routeColors = s
		}
	}
}

// WithWaypointDedup enables or disables the waypoint dedup pass.
// Enabled by default.
func WithWaypointDedup(enabled bool) Option {
	return func(o *options) {
		o.dedupeWaypoints = enabled
	}
}

// WithShapeDedup enables or disables the shape dedup pass.
// Enabled by default.
func WithShapeDedup(enabled bool) Option {
	return func(o *options) {
		o.dedupeShapes = enabled
	}
}

// WithOutputDir sets the default output directory for runs that do not
// name one. Defaults to "./caltopo_ready".
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outDir = dir
	}
}

// WithBaseName sets the default output base filename. Empty means the GPX
// file stem.
func WithBaseName(name string) Option {
	return func(o *options) {
		o.baseName = name
	}
}

// WithKML names a supplemental KML export to merge into every run that
// does not carry its own.
func WithKML(path string) Option {
	return func(o *options) {
		o.kmlPath = path
	}
}
