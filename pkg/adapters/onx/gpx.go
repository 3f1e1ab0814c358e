package onx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/aretw0/cairn/pkg/core"
)

// Common errors for both onX readers.
var (
	ErrEmptyFile  = errors.New("export file is empty")
	ErrInvalidGPX = errors.New("not a valid GPX file")
	ErrInvalidKML = errors.New("not a valid KML file")
)

// gpxFile mirrors the subset of GPX 1.1 that onX exports, plus the onX
// extension elements (namespace https://wwww.OnXmaps.com/ — four w's, as
// exported). Matching is by local name, so the namespace quirk is
// harmless.
type gpxFile struct {
	XMLName   xml.Name `xml:"gpx"`
	Waypoints []gpxWpt `xml:"wpt"`
	Tracks    []gpxTrk `xml:"trk"`
	Routes    []gpxRte `xml:"rte"`
}

type gpxWpt struct {
	Lat  string        `xml:"lat,attr"`
	Lon  string        `xml:"lon,attr"`
	Name string        `xml:"name"`
	Desc string        `xml:"desc"`
	Ext  gpxExtensions `xml:"extensions"`
}

type gpxTrk struct {
	Name     string        `xml:"name"`
	Desc     string        `xml:"desc"`
	Ext      gpxExtensions `xml:"extensions"`
	Segments []gpxTrkSeg   `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxRte struct {
	Name   string        `xml:"name"`
	Desc   string        `xml:"desc"`
	Ext    gpxExtensions `xml:"extensions"`
	Points []gpxPoint    `xml:"rtept"`
}

type gpxPoint struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Ele  string `xml:"ele"`
	Time string `xml:"time"`
}

type gpxExtensions struct {
	Color  string `xml:"color"`
	Icon   string `xml:"icon"`
	Style  string `xml:"style"`
	Weight string `xml:"weight"`
}

// idNamespace seeds fallback ids for items whose desc block carries no
// onX id. Minting from content keeps ids identical across reruns of the
// same export, so repeated migrations diff clean and traces replay.
var idNamespace = uuid.MustParse("3f1c2aee-7d44-4b84-9b62-5a0c8e2d91f0")

func fallbackID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// parseLatLonAttrs parses coordinate attributes. The bool reports whether
// the parsed values are within geographic range.
func parseLatLonAttrs(latAttr, lonAttr string) (lat, lon float64, inRange bool, err error) {
	lat, err = strconv.ParseFloat(strings.TrimSpace(latAttr), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid lat %q: %w", latAttr, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonAttr), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("invalid lon %q: %w", lonAttr, err)
	}
	inRange = lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
	return lat, lon, inRange, nil
}

// firstNonEmpty prefers values earlier in the list.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ReadGPX reads an onX GPX export from disk.
func ReadGPX(path string, tr core.Tracer) (*core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPX file: %w", err)
	}
	defer f.Close()

	doc, err := ParseGPX(f, tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Meta.Path = path
	return doc, nil
}

// ParseGPX reads an onX GPX export into a canonical Document.
//
// Per-feature problems (unparseable or out-of-range coordinates) skip the
// feature and emit a trace event; only an empty file or a non-GPX root is
// fatal. Each item id is the onX id from the desc block, or a UUID derived
// from the item's content (stable across reruns).
func ParseGPX(r io.Reader, tr core.Tracer) (*core.Document, error) {
	tr = orNop(tr)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var file gpxFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGPX, err)
	}

	doc := core.NewDocument(core.Provenance{Source: "OnX_gpx"})
	doc.EnsureFolder("OnX_import", "OnX Import", "")
	doc.EnsureFolder("OnX_waypoints", "Waypoints", "OnX_import")
	doc.EnsureFolder("OnX_tracks", "Tracks", "OnX_import")

	for idx, wpt := range file.Waypoints {
		lat, lon, inRange, err := parseLatLonAttrs(wpt.Lat, wpt.Lon)
		if err != nil {
			tr.Emit(core.Event{Name: "input.wpt.error", Fields: map[string]any{
				"idx":     idx,
				"error":   err.Error(),
				"lat_raw": wpt.Lat,
				"lon_raw": wpt.Lon,
			}})
			continue
		}
		if !inRange {
			tr.Emit(core.Event{Name: "input.wpt.warning", Fields: map[string]any{
				"idx":     idx,
				"warning": "coordinates out of valid range",
				"lat":     lat,
				"lon":     lon,
			}})
			continue
		}

		name := core.NormalizeName(wpt.Name)
		kv, notes := ParseDescKV(wpt.Desc)

		style := core.Style{
			OnxIcon:      firstNonEmpty(wpt.Ext.Icon, kv["icon"]),
			OnxColorRGBA: firstNonEmpty(wpt.Ext.Color, kv["color"]),
			OnxID:        kv["id"],
		}

		id := strings.TrimSpace(style.OnxID)
		if id == "" {
			id = fallbackID("wpt", name, wpt.Lat, wpt.Lon, strconv.Itoa(idx))
		}

		wp := &core.Waypoint{
			Base: core.Base{
				ID:       id,
				FolderID: "OnX_waypoints",
				Name:     name,
				Notes:    core.NormalizeName(notes),
				Style:    style,
			},
			Point: orb.Point{lon, lat},
		}
		wp.Annotations.SetResidual("name_raw", wpt.Name)
		wp.Annotations.SetResidual("desc_raw", wpt.Desc)
		doc.Add(wp)

		tr.Emit(core.Event{Name: "input.wpt", Fields: map[string]any{
			"idx":       idx,
			"lat":       lat,
			"lon":       lon,
			"name_raw":  wpt.Name,
			"name_norm": name,
			"OnX": map[string]any{
				"id":    style.OnxID,
				"icon":  style.OnxIcon,
				"color": style.OnxColorRGBA,
			},
		}})
	}

	for idx, trk := range file.Tracks {
		var pts []gpxPoint
		for _, seg := range trk.Segments {
			pts = append(pts, seg.Points...)
		}
		if t := buildTrack(trk.Name, trk.Desc, trk.Ext, pts, "trk", idx, tr); t != nil {
			doc.Add(t)
		}
	}
	for idx, rte := range file.Routes {
		if t := buildTrack(rte.Name, rte.Desc, rte.Ext, rte.Points, "rte", idx, tr); t != nil {
			doc.Add(t)
		}
	}

	return doc, nil
}

// buildTrack converts a <trk> or <rte> element into a canonical Track.
// Invalid points are skipped; an element with no valid points yields nil.
func buildTrack(nameRaw, descRaw string, ext gpxExtensions, pts []gpxPoint, gpxType string, idx int, tr core.Tracer) *core.Track {
	name := core.NormalizeName(nameRaw)
	kv, notes := ParseDescKV(descRaw)

	var points []core.TrackPoint
	for _, pt := range pts {
		lat, lon, inRange, err := parseLatLonAttrs(pt.Lat, pt.Lon)
		if err != nil || !inRange {
			continue
		}
		tp := core.TrackPoint{Point: orb.Point{lon, lat}}
		if v, err := strconv.ParseFloat(strings.TrimSpace(pt.Ele), 64); err == nil {
			tp.Ele = &v
		}
		tp.TimeMS = core.ISO8601ToEpochMS(pt.Time)
		points = append(points, tp)
	}
	if len(points) == 0 {
		return nil
	}

	style := core.Style{
		OnxColorRGBA: firstNonEmpty(ext.Color, kv["color"]),
		OnxStyle:     firstNonEmpty(ext.Style, kv["style"]),
		OnxWeight:    firstNonEmpty(ext.Weight, kv["weight"]),
		OnxID:        kv["id"],
	}

	id := strings.TrimSpace(style.OnxID)
	if id == "" {
		id = fallbackID(gpxType, name, strconv.Itoa(idx), strconv.Itoa(len(points)))
	}

	t := &core.Track{
		Base: core.Base{
			ID:       id,
			FolderID: "OnX_tracks",
			Name:     name,
			Notes:    core.NormalizeName(notes),
			Style:    style,
		},
		Points: points,
	}
	t.Annotations.SetResidual("name_raw", nameRaw)
	t.Annotations.SetResidual("desc_raw", descRaw)
	t.Annotations.SetResidual("gpx_type", gpxType)

	event := "input.trk"
	if gpxType == "rte" {
		event = "input.rte"
	}
	tr.Emit(core.Event{Name: event, Fields: map[string]any{
		"idx":         idx,
		"name_raw":    nameRaw,
		"name_norm":   name,
		"point_count": len(points),
		"OnX": map[string]any{
			"id":     style.OnxID,
			"color":  style.OnxColorRGBA,
			"style":  style.OnxStyle,
			"weight": style.OnxWeight,
		},
	}})

	return t
}

// orNop mirrors the engines' tolerance for a nil tracer.
func orNop(tr core.Tracer) core.Tracer {
	if tr == nil {
		return core.NopTracer{}
	}
	return tr
}
