package caltopo

import (
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

// ErrInvalidGPX reports a file that is not a GPX document.
var ErrInvalidGPX = errors.New("not a GPX document")

// idNamespace seeds content-derived item ids so parsing the same export
// twice yields the same ids.
var idNamespace = uuid.MustParse("c4b7a2d1-08e5-4c3f-a96d-2e71b0f45c88")

func itemID(kind, name string, idx int) string {
	seed := kind + "\x00" + name + "\x00" + strconv.Itoa(idx)
	return uuid.NewSHA1(idNamespace, []byte(seed)).String()
}

// CalTopo's GPX export is plain: wpt with name/desc/sym, trk with one or
// more segments. No extensions, no onX-style desc blocks.
type ctGPXFile struct {
	XMLName   xml.Name   `xml:"gpx"`
	Waypoints []ctGPXWpt `xml:"wpt"`
	Tracks    []ctGPXTrk `xml:"trk"`
}

type ctGPXWpt struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Name string `xml:"name"`
	Desc string `xml:"desc"`
	Sym  string `xml:"sym"`
}

type ctGPXTrk struct {
	Name     string `xml:"name"`
	Desc     string `xml:"desc"`
	Segments []struct {
		Points []ctGPXPoint `xml:"trkpt"`
	} `xml:"trkseg"`
}

type ctGPXPoint struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Ele  string `xml:"ele"`
	Time string `xml:"time"`
}

// ReadGPX reads a CalTopo GPX export into the canonical model. It exists
// for verifying a completed CalTopo import against the migrated document;
// items carry generated IDs and land in a single folder named after the
// file.
func ReadGPX(path string) (*core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ParseGPX(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Meta.Path = path
	return doc, nil
}

// ParseGPX parses a CalTopo GPX stream. Invalid points are skipped
// silently; this reader is a verification aid, not a migration source.
func ParseGPX(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	var file ctGPXFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGPX, err)
	}
	if file.XMLName.Local != "gpx" {
		return nil, fmt.Errorf("%w: root element <%s>", ErrInvalidGPX, file.XMLName.Local)
	}

	doc := &core.Document{Meta: core.Provenance{Source: "caltopo_gpx"}}
	folder := doc.EnsureFolder("caltopo_export", "CalTopo Export", "")

	for idx, w := range file.Waypoints {
		lon, lat, ok := parseWGS84(w.Lon, w.Lat)
		if !ok {
			continue
		}
		doc.Add(&core.Waypoint{
			Base: core.Base{
				ID:       itemID("wpt", w.Name, idx),
				FolderID: folder.ID,
				Name:     core.NormalizeName(w.Name),
				Notes:    strings.TrimSpace(w.Desc),
				Style:    core.Style{CaltopoMarkerSymbol: strings.TrimSpace(w.Sym)},
			},
			Point: orb.Point{lon, lat},
		})
	}

	for idx, t := range file.Tracks {
		trk := &core.Track{Base: core.Base{
			ID:       itemID("trk", t.Name, idx),
			FolderID: folder.ID,
			Name:     core.NormalizeName(t.Name),
			Notes:    strings.TrimSpace(t.Desc),
		}}
		for _, seg := range t.Segments {
			for _, p := range seg.Points {
				lon, lat, ok := parseWGS84(p.Lon, p.Lat)
				if !ok {
					continue
				}
				pt := core.TrackPoint{Point: orb.Point{lon, lat}}
				if v, err := strconv.ParseFloat(strings.TrimSpace(p.Ele), 64); err == nil {
					pt.Ele = &v
				}
				pt.TimeMS = core.ISO8601ToEpochMS(p.Time)
				trk.Points = append(trk.Points, pt)
			}
		}
		if len(trk.Points) > 0 {
			doc.Add(trk)
		}
	}

	return doc, nil
}

func parseWGS84(lonStr, latStr string) (lon, lat float64, ok bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lon, lat, true
}
