// Package caltopo writes the canonical document as a CalTopo-importable
// GeoJSON FeatureCollection, and reads the minimal GPX CalTopo exports for
// sanity checks against a prior import.
//
// CalTopo conventions: a feature's properties.class discriminates Folder
// (null geometry), Marker (Point), and Shape (LineString/Polygon); colors
// are "#RRGGBB" hex.
package caltopo

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/aretw0/cairn/pkg/colors"
	"github.com/aretw0/cairn/pkg/core"
	"github.com/aretw0/cairn/pkg/icons"
)

// DescriptionMode selects what lands in a feature's description.
type DescriptionMode string

const (
	// DescriptionNotesOnly emits just the feature's notes.
	DescriptionNotesOnly DescriptionMode = "notes_only"
	// DescriptionDebug appends a parseable provenance block to the notes.
	DescriptionDebug DescriptionMode = "debug"
)

// RouteColorStrategy selects the stroke for tracks without a color of
// their own.
type RouteColorStrategy string

const (
	// RouteColorsPalette picks a deterministic palette color by name.
	RouteColorsPalette RouteColorStrategy = "palette"
	// RouteColorsDefaultBlue uses a fixed blue.
	RouteColorsDefaultBlue RouteColorStrategy = "default_blue"
	// RouteColorsNone omits the stroke property entirely.
	RouteColorsNone RouteColorStrategy = "none"
)

// WriteOptions configures the GeoJSON writer. Zero values mean: default
// icon registry, notes-only descriptions, palette route colors, no
// tracing.
type WriteOptions struct {
	Registry    *icons.Registry
	Description DescriptionMode
	RouteColors RouteColorStrategy
	Tracer      core.Tracer
}

func (o *WriteOptions) fill() {
	if o.Registry == nil {
		o.Registry = icons.Default()
	}
	if o.Description == "" {
		o.Description = DescriptionNotesOnly
	}
	if o.RouteColors == "" {
		o.RouteColors = RouteColorsPalette
	}
	if o.Tracer == nil {
		o.Tracer = core.NopTracer{}
	}
}

// feature is the CalTopo GeoJSON feature shape. Geometry is kept raw so
// folders can carry an explicit null and tracks can carry 4-dim
// coordinates.
type feature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

var nullGeometry = json.RawMessage("null")

// orbGeometry encodes a 2-dim geometry through orb's GeoJSON support.
func orbGeometry(g orb.Geometry) (json.RawMessage, error) {
	data, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return nil, fmt.Errorf("failed to encode geometry: %w", err)
	}
	return data, nil
}

// WriteGeoJSON writes doc as a CalTopo FeatureCollection: folders first
// (minus the internal import root), then items in document order.
func WriteGeoJSON(w io.Writer, doc *core.Document, opts WriteOptions) error {
	opts.fill()

	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}

	for _, folder := range doc.Folders {
		// Internal convenience root; no item carries its folder id, so it
		// would only show up empty in CalTopo.
		if folder.ID == "OnX_import" {
			continue
		}
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			ID:       folder.ID,
			Geometry: nullGeometry,
			Properties: map[string]any{
				"class": "Folder",
				"title": folder.Name,
			},
		})
		opts.Tracer.Emit(core.Event{Name: "output.folder", Fields: map[string]any{
			"id":    folder.ID,
			"title": folder.Name,
		}})
	}

	for _, item := range doc.Items {
		var f feature
		var err error
		switch v := item.(type) {
		case *core.Waypoint:
			f, err = waypointFeature(v, doc, opts)
		case *core.Track:
			f, err = trackFeature(v, doc, opts)
		case *core.Shape:
			f, err = shapeFeature(v, doc, opts)
		}
		if err != nil {
			return err
		}
		fc.Features = append(fc.Features, f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}

func waypointFeature(wp *core.Waypoint, doc *core.Document, opts WriteOptions) (feature, error) {
	mapped, mappingSource := opts.Registry.MapIcon(wp.Style.OnxIcon)
	symbol := wp.Style.CaltopoMarkerSymbol
	if symbol == "" {
		symbol = mapped
	}

	// Keep the provided color even when the icon is unknown; fall back to
	// a red dot only when neither is available.
	markerColor := firstNonEmpty(
		wp.Style.CaltopoMarkerColor,
		colors.RGBAToHex(wp.Style.OnxColorRGBA),
		"#FF0000",
	)

	desc := buildDescription(wp.Name, wp.Notes, wp.Style, doc.Meta.Source, opts.Description, true)

	// An unknown icon would silently flatten to the default symbol;
	// preserve its name in the visible description for manual recovery.
	if opts.Description == DescriptionNotesOnly &&
		strings.TrimSpace(wp.Style.OnxIcon) != "" &&
		mappingSource != icons.SourceDirect &&
		wp.Style.CaltopoMarkerSymbol == "" &&
		(opts.Registry.UnknownIconPolicy == "" || opts.Registry.UnknownIconPolicy == icons.PolicyAppendToDescription) {
		token := "OnX icon: " + wp.Style.OnxIcon
		if !strings.Contains(desc, token) {
			if desc != "" {
				desc += "\n\n"
			}
			desc += token
		}
	}

	geom, err := orbGeometry(wp.Point)
	if err != nil {
		return feature{}, err
	}
	f := feature{
		Type:     "Feature",
		ID:       wp.ID,
		Geometry: geom,
		Properties: map[string]any{
			"class":         "Marker",
			"title":         wp.Name,
			"description":   desc,
			"marker-symbol": symbol,
			"marker-color":  markerColor,
			"folderId":      wp.FolderID,
			"cairn":         provenance(wp.Name, doc.Meta.Source, wp.Style, true),
		},
	}
	opts.Tracer.Emit(core.Event{Name: "output.feature", Fields: map[string]any{
		"feature_type":        "Marker",
		"id":                  wp.ID,
		"folderId":            wp.FolderID,
		"title":               wp.Name,
		"marker-symbol":       symbol,
		"marker-color":        markerColor,
		"icon_mapping_source": mappingSource,
	}})
	return f, nil
}

// strokeFor resolves the stroke color for line work. Empty means omit.
func strokeFor(b *core.Base, strategy RouteColorStrategy) string {
	if s := firstNonEmpty(b.Style.CaltopoStroke, colors.RGBAToHex(b.Style.OnxColorRGBA)); s != "" {
		return s
	}
	switch strategy {
	case RouteColorsPalette:
		return colors.PalettePick(b.Name)
	case RouteColorsDefaultBlue:
		return "#0000FF"
	default:
		return ""
	}
}

func lineStyle(b *core.Base) (pattern string, width float64) {
	pattern = firstNonEmpty(b.Style.CaltopoPattern, b.Style.OnxStyle, "solid")
	width = b.Style.CaltopoStrokeWidth
	if width == 0 {
		width = 2
	}
	return pattern, width
}

func trackFeature(t *core.Track, doc *core.Document, opts WriteOptions) (feature, error) {
	stroke := strokeFor(&t.Base, opts.RouteColors)
	pattern, width := lineStyle(&t.Base)

	// Elevation/time are preserved whenever present anywhere: CalTopo
	// accepts [lon, lat, ele, time_ms] coordinates.
	anyEleOrTime := false
	for _, p := range t.Points {
		if p.Ele != nil || p.TimeMS != nil {
			anyEleOrTime = true
			break
		}
	}

	var geom json.RawMessage
	var err error
	if anyEleOrTime {
		coords := make([][]float64, 0, len(t.Points))
		for _, p := range t.Points {
			ele, tms := 0.0, 0.0
			if p.Ele != nil {
				ele = *p.Ele
			}
			if p.TimeMS != nil {
				tms = float64(*p.TimeMS)
			}
			coords = append(coords, []float64{p.Point.Lon(), p.Point.Lat(), ele, tms})
		}
		geom, err = json.Marshal(map[string]any{"type": "LineString", "coordinates": coords})
		if err != nil {
			err = fmt.Errorf("failed to encode geometry: %w", err)
		}
	} else {
		ls := make(orb.LineString, 0, len(t.Points))
		for _, p := range t.Points {
			ls = append(ls, p.Point)
		}
		geom, err = orbGeometry(ls)
	}
	if err != nil {
		return feature{}, err
	}

	props := map[string]any{
		"class":        "Shape",
		"title":        t.Name,
		"description":  buildDescription(t.Name, t.Notes, t.Style, doc.Meta.Source, opts.Description, false),
		"pattern":      pattern,
		"stroke-width": width,
		"folderId":     t.FolderID,
		"cairn":        provenance(t.Name, doc.Meta.Source, t.Style, false),
	}
	if stroke != "" {
		props["stroke"] = stroke
	}

	coordDim := 2
	if anyEleOrTime {
		coordDim = 4
	}
	opts.Tracer.Emit(core.Event{Name: "output.feature", Fields: map[string]any{
		"feature_type": "Shape",
		"id":           t.ID,
		"folderId":     t.FolderID,
		"title":        t.Name,
		"stroke":       stroke,
		"stroke-width": width,
		"pattern":      pattern,
		"point_count":  len(t.Points),
		"coord_dim":    coordDim,
	}})

	return feature{Type: "Feature", ID: t.ID, Geometry: geom, Properties: props}, nil
}

func shapeFeature(s *core.Shape, doc *core.Document, opts WriteOptions) (feature, error) {
	stroke := strokeFor(&s.Base, opts.RouteColors)
	pattern, width := lineStyle(&s.Base)

	geom, err := orbGeometry(orb.Polygon(s.Rings))
	if err != nil {
		return feature{}, err
	}

	props := map[string]any{
		"class":        "Shape",
		"title":        s.Name,
		"description":  buildDescription(s.Name, s.Notes, s.Style, doc.Meta.Source, opts.Description, true),
		"pattern":      pattern,
		"stroke-width": width,
		"folderId":     s.FolderID,
		"cairn":        provenance(s.Name, doc.Meta.Source, s.Style, true),
	}
	if stroke != "" {
		props["stroke"] = stroke
	}

	opts.Tracer.Emit(core.Event{Name: "output.feature", Fields: map[string]any{
		"feature_type": "Polygon",
		"id":           s.ID,
		"folderId":     s.FolderID,
		"title":        s.Name,
	}})

	return feature{Type: "Feature", ID: s.ID, Geometry: geom, Properties: props}, nil
}

// buildDescription renders a feature description. In notes-only mode it is
// the trimmed notes; in debug mode a parseable metadata block follows them.
func buildDescription(title, notes string, style core.Style, source string, mode DescriptionMode, withIcon bool) string {
	clean := strings.TrimSpace(notes)
	if mode != DescriptionDebug {
		return clean
	}

	var lines []string
	if clean != "" {
		lines = append(lines, clean, "")
	}
	lines = append(lines, "cairn:source="+source, "name="+title)
	if style.OnxID != "" {
		lines = append(lines, "OnX:id="+style.OnxID)
	}
	if style.OnxColorRGBA != "" {
		lines = append(lines, "OnX:color="+style.OnxColorRGBA)
	}
	if withIcon && style.OnxIcon != "" {
		lines = append(lines, "OnX:icon="+style.OnxIcon)
	}
	if style.OnxStyle != "" {
		lines = append(lines, "OnX:style="+style.OnxStyle)
	}
	if style.OnxWeight != "" {
		lines = append(lines, "OnX:weight="+style.OnxWeight)
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// provenance is the structured metadata block CalTopo ignores but
// downstream tooling can use for round trips.
func provenance(title, source string, style core.Style, withIcon bool) map[string]any {
	onx := map[string]any{}
	if style.OnxID != "" {
		onx["id"] = style.OnxID
	}
	if style.OnxColorRGBA != "" {
		onx["color"] = style.OnxColorRGBA
	}
	if withIcon && style.OnxIcon != "" {
		onx["icon"] = style.OnxIcon
	}
	if style.OnxStyle != "" {
		onx["style"] = style.OnxStyle
	}
	if style.OnxWeight != "" {
		onx["weight"] = style.OnxWeight
	}

	meta := map[string]any{"source": source, "name": title}
	if len(onx) > 0 {
		meta["OnX"] = onx
	}
	return meta
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
