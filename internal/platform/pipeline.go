package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/cairn/pkg/adapters/caltopo"
	"github.com/aretw0/cairn/pkg/adapters/fs"
	"github.com/aretw0/cairn/pkg/adapters/onx"
	"github.com/aretw0/cairn/pkg/core"
)

// ErrMissingInput reports a run whose GPX (or named KML) does not exist.
var ErrMissingInput = errors.New("input file not found")

// Pipeline runs the onX → CalTopo conversion: read, merge, dedup, write.
// A Pipeline is safe for concurrent Runs; output directories are guarded
// by a per-directory run lock.
type Pipeline struct {
	opts *options

	mu            sync.RWMutex
	runsStarted   int
	runsCompleted int
}

// NewPipeline builds a Pipeline from functional options.
func NewPipeline(opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Pipeline{opts: o}
}

// RunSpec names the inputs and outputs of a single conversion. Empty
// fields fall back to the pipeline's configured defaults.
type RunSpec struct {
	GPXPath  string
	KMLPath  string
	OutDir   string
	BaseName string
}

// RunResult reports where a run wrote its outputs and what it dropped.
type RunResult struct {
	PrimaryPath string
	DroppedPath string
	SummaryPath string

	WaypointReport core.DedupReport
	ShapeReport    core.ShapeDedupReport

	FolderCount   int
	WaypointCount int
	TrackCount    int
	ShapeCount    int
}

// Run executes the conversion. The document flows through the stages in
// order; the context is checked between them so cancellation never leaves
// a half-written output (every write is atomic).
func (p *Pipeline) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	p.mu.Lock()
	p.runsStarted++
	p.mu.Unlock()

	gpxPath := spec.GPXPath
	if _, err := os.Stat(gpxPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, gpxPath)
	}
	kmlPath := spec.KMLPath
	if kmlPath == "" {
		kmlPath = p.opts.kmlPath
	}
	if kmlPath != "" {
		if _, err := os.Stat(kmlPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, kmlPath)
		}
	}

	outDir := spec.OutDir
	if outDir == "" {
		outDir = p.opts.outDir
	}
	if outDir == "" {
		outDir = "./caltopo_ready"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", outDir, err)
	}

	base := strings.TrimSpace(spec.BaseName)
	if base == "" {
		base = strings.TrimSpace(p.opts.baseName)
	}
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(gpxPath), filepath.Ext(gpxPath))
	}

	unlock, err := fs.RunLock(outDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tr := p.opts.tracer
	log := p.opts.logger

	tr.Emit(core.Event{Name: "run.start", Fields: map[string]any{
		"command": "migrate.onx-to-caltopo",
		"gpx":     gpxPath,
		"kml":     kmlPath,
	}})
	defer tr.Emit(core.Event{Name: "run.end", Fields: nil})

	result := &RunResult{
		PrimaryPath: filepath.Join(outDir, base+".json"),
		DroppedPath: filepath.Join(outDir, base+"_dropped_shapes.json"),
		SummaryPath: filepath.Join(outDir, base+"_SUMMARY.md"),
	}

	doc, err := onx.ReadGPX(gpxPath, tr)
	if err != nil {
		return nil, err
	}
	log.Info("read gpx", "path", gpxPath, "items", len(doc.Items))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if kmlPath != "" {
		kmlDoc, err := onx.ReadKML(kmlPath, tr)
		if err != nil {
			return nil, err
		}
		log.Info("read kml", "path", kmlPath, "items", len(kmlDoc.Items))
		doc = core.MergeGPXAndKML(doc, kmlDoc, tr)
	}

	tr.Emit(core.Event{Name: "inventory.before_dedup", Fields: doc.Inventory()})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.opts.dedupeWaypoints {
		result.WaypointReport = core.ApplyWaypointDedup(doc, tr)
		tr.Emit(core.Event{Name: "dedup.report", Fields: map[string]any{
			"dedup_group_count":   result.WaypointReport.GroupCount(),
			"dedup_dropped_count": result.WaypointReport.DroppedCount(),
			"groups":              result.WaypointReport.Groups,
		}})
		log.Info("waypoint dedup",
			"groups", result.WaypointReport.GroupCount(),
			"dropped", result.WaypointReport.DroppedCount())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var droppedItems []core.Item
	if p.opts.dedupeShapes {
		result.ShapeReport, droppedItems = core.ApplyShapeDedup(doc, tr)
		log.Info("shape dedup",
			"groups", len(result.ShapeReport.Groups),
			"dropped", result.ShapeReport.DroppedCount())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writeOpts := caltopo.WriteOptions{
		Registry:    p.opts.registry,
		Description: p.opts.descriptionMode,
		RouteColors: p.opts.routeColors,
		Tracer:      tr,
	}

	if err := writeGeoJSONAtomic(result.PrimaryPath, doc, writeOpts); err != nil {
		return nil, err
	}

	// Dropped duplicates are preserved in a secondary file even when
	// empty, so callers can rely on its presence.
	droppedDoc := &core.Document{
		Folders: append([]*core.Folder(nil), doc.Folders...),
		Items:   droppedItems,
		Meta: core.Provenance{
			Source:  "cairn_shape_dedup_dropped",
			Primary: result.PrimaryPath,
		},
	}
	if err := writeGeoJSONAtomic(result.DroppedPath, droppedDoc, writeOpts); err != nil {
		return nil, err
	}

	summary := renderSummary(summaryInput{
		GPXPath:              gpxPath,
		KMLPath:              kmlPath,
		PrimaryPath:          result.PrimaryPath,
		DroppedPath:          result.DroppedPath,
		WaypointReport:       result.WaypointReport,
		ShapeReport:          result.ShapeReport,
		ShapeDedupEnabled:    p.opts.dedupeShapes,
		WaypointDedupEnabled: p.opts.dedupeWaypoints,
	})
	if err := fs.WriteFileAtomic(result.SummaryPath, summary, 0o644); err != nil {
		return nil, err
	}

	result.FolderCount = len(doc.Folders)
	result.WaypointCount = len(doc.Waypoints())
	result.TrackCount = len(doc.Tracks())
	result.ShapeCount = len(doc.Shapes())

	log.Info("run complete",
		"primary", result.PrimaryPath,
		"dropped", result.DroppedPath,
		"summary", result.SummaryPath)

	p.mu.Lock()
	p.runsCompleted++
	p.mu.Unlock()

	return result, nil
}

func writeGeoJSONAtomic(path string, doc *core.Document, opts caltopo.WriteOptions) error {
	var buf bytes.Buffer
	if err := caltopo.WriteGeoJSON(&buf, doc, opts); err != nil {
		return err
	}
	return fs.WriteFileAtomic(path, buf.Bytes(), 0o644)
}
