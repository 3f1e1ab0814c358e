// Package core holds the canonical in-memory model for a user map and the
// engines that operate on it: text/coordinate normalization, waypoint and
// shape deduplication, and the two-source merge. Everything here is pure;
// readers and writers live in the adapter packages.
package core

import "github.com/paulmach/orb"

// Kind discriminates the geometry variants a Document can hold.
type Kind string

const (
	KindWaypoint Kind = "Waypoint"
	KindTrack    Kind = "Track"
	KindShape    Kind = "Shape"
)

// Style is the shared styling/metadata container.
//
// Onx fields are preserved even when the destination cannot render them.
// Caltopo fields are direct overrides for what the GeoJSON writer emits;
// when empty, the writer derives values from the Onx side.
// Nothing here is validated. Fields are copied, enriched, or left empty.
type Style struct {
	OnxID        string `json:"OnX_id,omitempty"`
	OnxIcon      string `json:"OnX_icon,omitempty"`
	OnxColorRGBA string `json:"OnX_color_rgba,omitempty"` // "rgba(r,g,b,a)"
	OnxStyle     string `json:"OnX_style,omitempty"`      // line pattern: solid|dash|dot
	OnxWeight    string `json:"OnX_weight,omitempty"`     // line weight: "4.0"|"6.0"|...

	CaltopoMarkerSymbol string  `json:"caltopo_marker_symbol,omitempty"`
	CaltopoMarkerColor  string  `json:"caltopo_marker_color,omitempty"` // "#RRGGBB"
	CaltopoStroke       string  `json:"caltopo_stroke,omitempty"`       // "#RRGGBB"
	CaltopoStrokeWidth  float64 `json:"caltopo_stroke_width,omitempty"`
	CaltopoPattern      string  `json:"caltopo_pattern,omitempty"`
}

// Folder groups items. ParentID builds a tree; this layer does not check it
// for cycles.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// Base carries the fields shared by every item variant.
//
// ID is a stable key: either a source-provided identifier or a generated
// fallback. Uniqueness is advisory, not enforced; the dedup and merge
// engines tolerate collisions and repair them through SourceIDs.
type Base struct {
	ID          string      `json:"id"`
	FolderID    string      `json:"folder_id,omitempty"`
	Name        string      `json:"name"`
	Notes       string      `json:"notes,omitempty"`
	Style       Style       `json:"style"`
	SourceIDs   []string    `json:"source_ids,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// Waypoint is a single named point.
type Waypoint struct {
	Base
	Point orb.Point `json:"point"` // lon, lat
}

// TrackPoint is one vertex of a Track. Elevation and time are optional per
// point, not per track.
type TrackPoint struct {
	Point  orb.Point `json:"point"`
	Ele    *float64  `json:"ele,omitempty"`     // meters
	TimeMS *int64    `json:"time_ms,omitempty"` // epoch milliseconds
}

// Track is an ordered sequence of points.
type Track struct {
	Base
	Points []TrackPoint `json:"points"`
}

// Shape is a polygon. The first ring is the outer boundary; any further
// rings are holes.
type Shape struct {
	Base
	Rings []orb.Ring `json:"rings"`
}

// Item is the closed union of the three geometry variants. Engines switch
// exhaustively over *Waypoint, *Track and *Shape; no other type can join.
type Item interface {
	Kind() Kind
	GeometryType() string
	base() *Base
}

func (w *Waypoint) Kind() Kind { return KindWaypoint }
func (t *Track) Kind() Kind    { return KindTrack }
func (s *Shape) Kind() Kind    { return KindShape }

// GeometryType returns the GeoJSON geometry name of the variant.
func (w *Waypoint) GeometryType() string { return "Point" }
func (t *Track) GeometryType() string    { return "LineString" }
func (s *Shape) GeometryType() string    { return "Polygon" }

func (w *Waypoint) base() *Base { return &w.Base }
func (t *Track) base() *Base    { return &t.Base }
func (s *Shape) base() *Base    { return &s.Base }

// Provenance records where a Document came from and what was merged into
// it. Residual keeps source metadata the typed fields do not cover.
type Provenance struct {
	Source    string            `json:"source,omitempty"`
	Path      string            `json:"path,omitempty"`
	Primary   string            `json:"primary,omitempty"`
	MergedKML bool              `json:"merged_kml,omitempty"`
	KMLPath   string            `json:"kml_path,omitempty"`
	Residual  map[string]string `json:"residual,omitempty"`
}

// Document is the canonical representation of a user map.
//
// Items live in one ordered list so relative ordering survives filtering.
// Dedup and merge mutate a Document in place; callers that need the prior
// state must snapshot first. A Document never outlives a single run.
type Document struct {
	Folders []*Folder
	Items   []Item
	Meta    Provenance
}

// NewDocument returns an empty Document with the given provenance.
func NewDocument(meta Provenance) *Document {
	return &Document{Meta: meta}
}

// GetFolder returns the folder with the given id, or nil.
func (d *Document) GetFolder(id string) *Folder {
	for _, f := range d.Folders {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// EnsureFolder returns the folder with the given id, creating it first if
// needed. Idempotent: an existing folder is returned untouched.
func (d *Document) EnsureFolder(id, name, parentID string) *Folder {
	if f := d.GetFolder(id); f != nil {
		return f
	}
	f := &Folder{ID: id, Name: name, ParentID: parentID}
	d.Folders = append(d.Folders, f)
	return f
}

// Add appends an item. Callers ensure the item's folder exists first.
func (d *Document) Add(item Item) {
	d.Items = append(d.Items, item)
}

// Waypoints returns the waypoints in document order.
func (d *Document) Waypoints() []*Waypoint {
	var out []*Waypoint
	for _, it := range d.Items {
		if w, ok := it.(*Waypoint); ok {
			out = append(out, w)
		}
	}
	return out
}

// Tracks returns the tracks in document order.
func (d *Document) Tracks() []*Track {
	var out []*Track
	for _, it := range d.Items {
		if t, ok := it.(*Track); ok {
			out = append(out, t)
		}
	}
	return out
}

// Shapes returns the shapes in document order.
func (d *Document) Shapes() []*Shape {
	var out []*Shape
	for _, it := range d.Items {
		if s, ok := it.(*Shape); ok {
			out = append(out, s)
		}
	}
	return out
}

// removeIndexes compacts d.Items, dropping the given positions while
// preserving the relative order of everything else.
func (d *Document) removeIndexes(drop map[int]bool) {
	if len(drop) == 0 {
		return
	}
	kept := d.Items[:0]
	for i, it := range d.Items {
		if !drop[i] {
			kept = append(kept, it)
		}
	}
	// Clear the tail so dropped items do not linger in the backing array.
	for i := len(kept); i < len(d.Items); i++ {
		d.Items[i] = nil
	}
	d.Items = kept
}
