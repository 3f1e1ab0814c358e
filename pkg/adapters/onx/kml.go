package onx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/aretw0/cairn/pkg/core"
)

// kmlFile models the subset of KML 2.2 onX exports: placemarks, possibly
// nested in folders, with styling reduced to an <ExtendedData> block.
type kmlFile struct {
	XMLName  xml.Name     `xml:"kml"`
	Document kmlContainer `xml:"Document"`
	// Some exports put placemarks directly under <kml>.
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlContainer `xml:"Folder"`
}

type kmlPlacemark struct {
	Name         string    `xml:"name"`
	ExtendedData []kmlData `xml:"ExtendedData>Data"`
	Point        *kmlGeom  `xml:"Point"`
	LineString   *kmlGeom  `xml:"LineString"`
	Polygon      *struct {
		Outer kmlGeom `xml:"outerBoundaryIs>LinearRing"`
	} `xml:"Polygon"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlGeom struct {
	Coordinates string `xml:"coordinates"`
}

// kmlCoord is one parsed coordinate token.
type kmlCoord struct {
	Lon, Lat float64
	Alt      *float64
}

// parseCoordList parses a KML coordinate list: whitespace-separated
// "lon,lat[,alt]" tokens. Malformed or out-of-range tokens are skipped,
// never fatal.
func parseCoordList(text string) []kmlCoord {
	var out []kmlCoord
	for _, token := range strings.Fields(text) {
		parts := strings.Split(token, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		c := kmlCoord{Lon: lon, Lat: lat}
		if len(parts) >= 3 && parts[2] != "" {
			if alt, err := strconv.ParseFloat(parts[2], 64); err == nil {
				c.Alt = &alt
			}
		}
		out = append(out, c)
	}
	return out
}

// extendedDataMap lowercases the keys of a placemark's ExtendedData.
func extendedDataMap(data []kmlData) map[string]string {
	kv := make(map[string]string, len(data))
	for _, d := range data {
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			continue
		}
		kv[key] = strings.TrimSpace(d.Value)
	}
	return kv
}

// ReadKML reads an onX KML export from disk.
func ReadKML(path string, tr core.Tracer) (*core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open KML file: %w", err)
	}
	defer f.Close()

	doc, err := ParseKML(f, tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Meta.Path = path
	return doc, nil
}

// ParseKML reads an onX KML export into a canonical Document.
//
// Points become Waypoints, LineStrings become Tracks (altitude carried as
// elevation, no time), and Polygon outer boundaries become single-ring
// Shapes. Placemarks with no parseable geometry are skipped.
func ParseKML(r io.Reader, tr core.Tracer) (*core.Document, error) {
	tr = orNop(tr)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read KML: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var file kmlFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKML, err)
	}

	doc := core.NewDocument(core.Provenance{Source: "OnX_kml"})
	doc.EnsureFolder("OnX_import", "OnX Import", "")
	doc.EnsureFolder("OnX_waypoints", "Waypoints", "OnX_import")
	doc.EnsureFolder("OnX_tracks", "Tracks", "OnX_import")
	doc.EnsureFolder("OnX_shapes", "Areas", "OnX_import")

	idx := 0
	var walk func(c kmlContainer)
	addAll := func(pms []kmlPlacemark) {
		for _, pm := range pms {
			addPlacemark(doc, pm, idx, tr)
			idx++
		}
	}
	walk = func(c kmlContainer) {
		addAll(c.Placemarks)
		for _, sub := range c.Folders {
			walk(sub)
		}
	}
	addAll(file.Placemarks)
	walk(file.Document)

	return doc, nil
}

// addPlacemark converts one placemark into a canonical item, if it has a
// usable geometry.
func addPlacemark(doc *core.Document, pm kmlPlacemark, idx int, tr core.Tracer) {
	nameRaw := pm.Name
	name := core.NormalizeName(nameRaw)

	kv := extendedDataMap(pm.ExtendedData)
	onxID := firstNonEmpty(kv["id"], kv["onx:id"])
	style := core.Style{
		OnxID:        onxID,
		OnxIcon:      kv["icon"],
		OnxColorRGBA: kv["color"],
	}
	notes := core.NormalizeName(kv["notes"])
	if name == "" {
		name = core.NormalizeName(kv["name"])
	}

	id := onxID
	if id == "" {
		id = fallbackID("kml", name, strconv.Itoa(idx))
	}

	base := core.Base{
		ID:    id,
		Name:  name,
		Notes: notes,
		Style: style,
	}
	base.Annotations.SetResidual("name_raw", nameRaw)

	switch {
	case pm.Point != nil:
		pts := parseCoordList(pm.Point.Coordinates)
		if len(pts) == 0 {
			return
		}
		base.FolderID = "OnX_waypoints"
		wp := &core.Waypoint{Base: base, Point: orb.Point{pts[0].Lon, pts[0].Lat}}
		doc.Add(wp)
		tr.Emit(core.Event{Name: "input.kml.placemark", Fields: map[string]any{
			"idx": idx, "geom": "Point", "name_raw": nameRaw, "name_norm": wp.Name,
			"OnX": map[string]any{"id": onxID, "icon": style.OnxIcon, "color": style.OnxColorRGBA},
		}})

	case pm.LineString != nil:
		pts := parseCoordList(pm.LineString.Coordinates)
		if len(pts) == 0 {
			return
		}
		base.FolderID = "OnX_tracks"
		base.Annotations.SetResidual("kml_geom", "LineString")
		trk := &core.Track{Base: base}
		for _, c := range pts {
			trk.Points = append(trk.Points, core.TrackPoint{Point: orb.Point{c.Lon, c.Lat}, Ele: c.Alt})
		}
		doc.Add(trk)
		tr.Emit(core.Event{Name: "input.kml.placemark", Fields: map[string]any{
			"idx": idx, "geom": "LineString", "name_raw": nameRaw, "name_norm": trk.Name,
			"point_count": len(trk.Points),
			"OnX":         map[string]any{"id": onxID, "color": style.OnxColorRGBA},
		}})

	case pm.Polygon != nil:
		pts := parseCoordList(pm.Polygon.Outer.Coordinates)
		if len(pts) == 0 {
			return
		}
		base.FolderID = "OnX_shapes"
		base.Annotations.SetResidual("kml_geom", "Polygon")
		ring := make(orb.Ring, 0, len(pts))
		for _, c := range pts {
			ring = append(ring, orb.Point{c.Lon, c.Lat})
		}
		shp := &core.Shape{Base: base, Rings: []orb.Ring{ring}}
		doc.Add(shp)
		tr.Emit(core.Event{Name: "input.kml.placemark", Fields: map[string]any{
			"idx": idx, "geom": "Polygon", "name_raw": nameRaw, "name_norm": shp.Name,
			"ring_len": len(ring),
			"OnX":      map[string]any{"id": onxID, "color": style.OnxColorRGBA},
		}})
	}
}
