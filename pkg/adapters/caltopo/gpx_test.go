package caltopo

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/cairn/pkg/core"
)

const sampleCalTopoGPX = `<?xml version="1.0"?>
<gpx version="1.1" creator="CalTopo">
  <wpt lat="44.1" lon="-120.5">
    <name>Camp &amp;amp; Creek</name>
    <desc>by the water</desc>
    <sym>camping</sym>
  </wpt>
  <wpt lat="999" lon="-120.5">
    <name>Bogus</name>
  </wpt>
  <trk>
    <name>Ridge Walk</name>
    <trkseg>
      <trkpt lat="44.1" lon="-120.5"><ele>1200.5</ele><time>2024-06-01T12:00:00Z</time></trkpt>
      <trkpt lat="44.2" lon="-120.6"></trkpt>
      <trkpt lat="oops" lon="-120.7"></trkpt>
    </trkseg>
  </trk>
  <trk>
    <name>Empty</name>
    <trkseg></trkseg>
  </trk>
</gpx>`

func TestParseGPXCalTopoExport(t *testing.T) {
	doc, err := ParseGPX(strings.NewReader(sampleCalTopoGPX))
	if err != nil {
		t.Fatalf("ParseGPX: %v", err)
	}
	if doc.Meta.Source != "caltopo_gpx" {
		t.Errorf("source = %q", doc.Meta.Source)
	}

	var wps []*core.Waypoint
	var trks []*core.Track
	for _, item := range doc.Items {
		switch v := item.(type) {
		case *core.Waypoint:
			wps = append(wps, v)
		case *core.Track:
			trks = append(trks, v)
		}
	}

	if len(wps) != 1 {
		t.Fatalf("waypoints = %d, want 1 (out-of-range skipped)", len(wps))
	}
	if wps[0].Name != "Camp & Creek" {
		t.Errorf("name = %q, want entities decoded", wps[0].Name)
	}
	if wps[0].Style.CaltopoMarkerSymbol != "camping" {
		t.Errorf("sym = %q", wps[0].Style.CaltopoMarkerSymbol)
	}

	if len(trks) != 1 {
		t.Fatalf("tracks = %d, want 1 (empty track dropped)", len(trks))
	}
	if len(trks[0].Points) != 2 {
		t.Fatalf("points = %d, want 2 (malformed skipped)", len(trks[0].Points))
	}
	p := trks[0].Points[0]
	if p.Ele == nil || *p.Ele != 1200.5 {
		t.Errorf("ele = %v", p.Ele)
	}
	if p.TimeMS == nil || *p.TimeMS != 1717243200000 {
		t.Errorf("time_ms = %v", p.TimeMS)
	}
}

func TestParseGPXStableIDs(t *testing.T) {
	first, err := ParseGPX(strings.NewReader(sampleCalTopoGPX))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseGPX(strings.NewReader(sampleCalTopoGPX))
	if err != nil {
		t.Fatal(err)
	}
	if a, b := first.Waypoints()[0].ID, second.Waypoints()[0].ID; a == "" || a != b {
		t.Errorf("waypoint id not stable: %q vs %q", a, b)
	}
	if a, b := first.Tracks()[0].ID, second.Tracks()[0].ID; a == "" || a != b {
		t.Errorf("track id not stable: %q vs %q", a, b)
	}
}

func TestParseGPXRejectsNonGPX(t *testing.T) {
	if _, err := ParseGPX(strings.NewReader(`<kml></kml>`)); !errors.Is(err, ErrInvalidGPX) {
		t.Errorf("expected ErrInvalidGPX, got %v", err)
	}
	if _, err := ParseGPX(strings.NewReader(`not xml`)); !errors.Is(err, ErrInvalidGPX) {
		t.Errorf("expected ErrInvalidGPX, got %v", err)
	}
}
