package onx

import (
	"errors"
	"strings"
	"testing"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Camp Muir</name>
      <ExtendedData>
        <Data name="id"><value>wp-1</value></Data>
        <Data name="icon"><value>Campsite</value></Data>
        <Data name="notes"><value>high camp</value></Data>
      </ExtendedData>
      <Point><coordinates>-121.7603,46.8523,3100</coordinates></Point>
    </Placemark>
    <Folder>
      <Placemark>
        <name>Ridge Loop</name>
        <ExtendedData>
          <Data name="id"><value>trk-1</value></Data>
        </ExtendedData>
        <LineString>
          <coordinates>
            -121.0,46.0,1500
            -121.1,46.1
            garbage,token
            -200.0,46.2
          </coordinates>
        </LineString>
      </Placemark>
      <Placemark>
        <name>Meadow</name>
        <ExtendedData>
          <Data name="id"><value>shp-1</value></Data>
          <Data name="color"><value>rgba(132,212,0,1)</value></Data>
        </ExtendedData>
        <Polygon>
          <outerBoundaryIs>
            <LinearRing>
              <coordinates>-121.0,46.0 -121.1,46.0 -121.1,46.1 -121.0,46.0</coordinates>
            </LinearRing>
          </outerBoundaryIs>
        </Polygon>
      </Placemark>
    </Folder>
    <Placemark>
      <name>No Geometry</name>
    </Placemark>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	doc, err := ParseKML(strings.NewReader(sampleKML), nil)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Meta.Source != "OnX_kml" {
		t.Errorf("source = %q", doc.Meta.Source)
	}
	if doc.GetFolder("OnX_shapes") == nil {
		t.Error("OnX_shapes folder missing")
	}
	if len(doc.Items) != 3 {
		t.Fatalf("items = %d, want 3 (geometry-less placemark skipped)", len(doc.Items))
	}

	wps := doc.Waypoints()
	if len(wps) != 1 || wps[0].ID != "wp-1" || wps[0].Notes != "high camp" {
		t.Errorf("waypoints = %+v", wps)
	}
	if wps[0].Point.Lon() != -121.7603 {
		t.Errorf("lon = %v", wps[0].Point.Lon())
	}

	trks := doc.Tracks()
	if len(trks) != 1 {
		t.Fatalf("tracks = %d", len(trks))
	}
	// Malformed and out-of-range tokens skipped, valid ones kept.
	if len(trks[0].Points) != 2 {
		t.Errorf("points = %d, want 2", len(trks[0].Points))
	}
	if trks[0].Points[0].Ele == nil || *trks[0].Points[0].Ele != 1500 {
		t.Errorf("altitude should become elevation: %+v", trks[0].Points[0])
	}
	if trks[0].Points[0].TimeMS != nil {
		t.Error("KML carries no time")
	}
	if trks[0].Annotations.Residual["kml_geom"] != "LineString" {
		t.Errorf("residual = %v", trks[0].Annotations.Residual)
	}

	shps := doc.Shapes()
	if len(shps) != 1 || shps[0].ID != "shp-1" {
		t.Fatalf("shapes = %+v", shps)
	}
	if len(shps[0].Rings) != 1 || len(shps[0].Rings[0]) != 4 {
		t.Errorf("rings = %+v", shps[0].Rings)
	}
	if shps[0].FolderID != "OnX_shapes" {
		t.Errorf("folder = %q", shps[0].FolderID)
	}
	if shps[0].Style.OnxColorRGBA != "rgba(132,212,0,1)" {
		t.Errorf("color = %q", shps[0].Style.OnxColorRGBA)
	}
}

func TestParseKML_StableFallbackIDs(t *testing.T) {
	const idless = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Unnamed Basin</name>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>-120.0,45.0 -120.1,45.1 -120.2,45.0 -120.0,45.0</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
  </Document>
</kml>`

	first, err := ParseKML(strings.NewReader(idless), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseKML(strings.NewReader(idless), nil)
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.Shapes(), second.Shapes()
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("shapes = %d and %d, want 1 each", len(a), len(b))
	}
	if a[0].ID == "" || a[0].ID != b[0].ID {
		t.Errorf("fallback id not stable: %q vs %q", a[0].ID, b[0].ID)
	}
}

func TestParseKML_Errors(t *testing.T) {
	if _, err := ParseKML(strings.NewReader(""), nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty: %v", err)
	}
	if _, err := ParseKML(strings.NewReader("<gpx></gpx>"), nil); !errors.Is(err, ErrInvalidKML) {
		t.Errorf("wrong root: %v", err)
	}
}

func TestParseCoordList(t *testing.T) {
	pts := parseCoordList(" -120.5,45.25,1000.5 \n -120.6,45.26 bad 1,2,notanalt ")
	if len(pts) != 3 {
		t.Fatalf("points = %d, want 3", len(pts))
	}
	if pts[0].Alt == nil || *pts[0].Alt != 1000.5 {
		t.Errorf("alt = %v", pts[0].Alt)
	}
	if pts[1].Alt != nil {
		t.Error("missing alt should be nil")
	}
	// An unparseable alt degrades to absent, the point survives.
	if pts[2].Alt != nil || pts[2].Lon != 1 || pts[2].Lat != 2 {
		t.Errorf("point = %+v", pts[2])
	}
}
