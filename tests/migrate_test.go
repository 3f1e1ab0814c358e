package tests_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cairn"
	"github.com/aretw0/cairn/pkg/trace"
)

// A realistic export pair: two fuzzy-duplicate waypoints, a track that the
// KML also carries as a polygon (same onX id), a standalone polygon with a
// rotated+reversed duplicate, and a colorless route.
const exportGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" xmlns:onx="https://wwww.OnXmaps.com/" version="1.1">
  <wpt lat="46.8523" lon="-121.7603">
    <name>Camp Muir</name>
    <desc>id=wp-1
icon=Campsite
color=rgba(255,51,0,1)
notes=high camp</desc>
  </wpt>
  <wpt lat="46.8523" lon="-121.7603">
    <name>CAMP  MUIR</name>
  </wpt>
  <trk>
    <name>Hunt Unit</name>
    <desc>id=area-1</desc>
    <trkseg>
      <trkpt lat="46.0" lon="-121.0"/>
      <trkpt lat="46.1" lon="-121.1"/>
      <trkpt lat="46.0" lon="-121.2"/>
      <trkpt lat="46.0" lon="-121.0"/>
    </trkseg>
  </trk>
  <rte>
    <name>Approach</name>
    <rtept lat="45.0" lon="-120.0"/>
    <rtept lat="45.1" lon="-120.1"/>
  </rte>
</gpx>`

const exportKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <name>Areas</name>
      <Placemark>
        <name>Hunt Unit</name>
        <ExtendedData><Data name="id"><value>area-1</value></Data></ExtendedData>
        <Polygon><outerBoundaryIs><LinearRing>
          <coordinates>-121.0,46.0 -121.1,46.1 -121.2,46.0 -121.0,46.0</coordinates>
        </LinearRing></outerBoundaryIs></Polygon>
      </Placemark>
      <Placemark>
        <name>Winter Range</name>
        <Polygon><outerBoundaryIs><LinearRing>
          <coordinates>-120.0,45.0 -120.1,45.1 -120.2,45.0 -120.0,45.0</coordinates>
        </LinearRing></outerBoundaryIs></Polygon>
      </Placemark>
      <Placemark>
        <name>Winter Range</name>
        <Polygon><outerBoundaryIs><LinearRing>
          <coordinates>-120.2,45.0 -120.1,45.1 -120.0,45.0 -120.2,45.0</coordinates>
        </LinearRing></outerBoundaryIs></Polygon>
      </Placemark>
    </Folder>
  </Document>
</kml>`

// writeExportPair drops a GPX and its sibling KML into a temp dir so the
// facade's companion discovery finds the KML on its own.
func writeExportPair(t *testing.T) (gpxPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	gpxPath = filepath.Join(dir, "onx_export.gpx")
	require.NoError(t, os.WriteFile(gpxPath, []byte(exportGPX), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "onx_export.kml"), []byte(exportKML), 0o644))
	return gpxPath, filepath.Join(dir, "out")
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		ID         string          `json:"id"`
		Geometry   json.RawMessage `json:"geometry"`
		Properties map[string]any  `json:"properties"`
	} `json:"features"`
}

func readFeatureCollection(t *testing.T, path string) featureCollection {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc featureCollection
	require.NoError(t, json.Unmarshal(data, &fc), "output must be valid GeoJSON")
	return fc
}

func TestMigrate_EndToEnd(t *testing.T) {
	gpxPath, outDir := writeExportPair(t)

	res, err := cairn.Migrate(context.Background(), gpxPath,
		cairn.WithOutputDir(outDir),
	)
	require.NoError(t, err)

	// All three outputs exist.
	for _, p := range []string{res.PrimaryPath, res.DroppedPath, res.SummaryPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, "missing output %s", p)
	}

	// One waypoint survives the fuzzy-duplicate pair.
	assert.Equal(t, 1, res.WaypointCount)
	assert.Equal(t, 1, res.WaypointReport.DroppedCount())

	// The GPX track shadowing the KML polygon is gone; the route stays.
	assert.Equal(t, 1, res.TrackCount, "approach route survives")
	// Hunt Unit polygon + one of the two Winter Range twins.
	assert.Equal(t, 2, res.ShapeCount)
	assert.Equal(t, 1, res.ShapeReport.DroppedCount(), "rotated+reversed twin dropped")

	primary := readFeatureCollection(t, res.PrimaryPath)
	classes := map[string]int{}
	titles := map[string]int{}
	for _, f := range primary.Features {
		classes[f.Properties["class"].(string)]++
		if title, ok := f.Properties["title"].(string); ok {
			titles[title]++
		}
	}
	assert.Equal(t, 1, classes["Marker"])
	assert.Equal(t, 3, classes["Shape"], "route + 2 polygons")
	assert.Equal(t, 1, titles["Winter Range"], "duplicate polygon removed from primary")

	// The dropped twin is preserved in the secondary file.
	dropped := readFeatureCollection(t, res.DroppedPath)
	droppedTitles := []string{}
	for _, f := range dropped.Features {
		if f.Properties["class"] == "Shape" {
			droppedTitles = append(droppedTitles, f.Properties["title"].(string))
		}
	}
	assert.Equal(t, []string{"Winter Range"}, droppedTitles)

	// The summary explains the decision.
	summary, err := os.ReadFile(res.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Winter Range")
	assert.Contains(t, string(summary), "fuzzy_geometry_signature_match")
}

func TestMigrate_TraceReplay(t *testing.T) {
	gpxPath, outDir := writeExportPair(t)
	tracePath := filepath.Join(t.TempDir(), "run.ndjson")

	tw, err := trace.NewWriter(tracePath)
	require.NoError(t, err)

	_, err = cairn.Migrate(context.Background(), gpxPath,
		cairn.WithOutputDir(outDir),
		cairn.WithTracer(tw),
	)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	events, err := trace.ReadAll(tracePath)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	counts := map[string]int{}
	for _, ev := range events {
		name, _ := ev["event"].(string)
		assert.NotEmpty(t, name, "every record carries an event name")
		assert.NotEmpty(t, ev["ts"], "every record carries a timestamp")
		counts[name]++
	}

	assert.Equal(t, "run.start", events[0]["event"])
	assert.Equal(t, "run.end", events[len(events)-1]["event"])
	for _, name := range []string{"inventory.before_dedup", "dedup.report", "merge.add"} {
		assert.GreaterOrEqual(t, counts[name], 1, "missing %s", name)
	}
	assert.GreaterOrEqual(t, counts["input.wpt"], 2)
	assert.GreaterOrEqual(t, counts["output.feature"], 4)
}

func TestMigrate_Idempotent(t *testing.T) {
	gpxPath, outDir := writeExportPair(t)

	first, err := cairn.Migrate(context.Background(), gpxPath, cairn.WithOutputDir(outDir))
	require.NoError(t, err)
	firstData, err := os.ReadFile(first.PrimaryPath)
	require.NoError(t, err)

	second, err := cairn.Migrate(context.Background(), gpxPath, cairn.WithOutputDir(outDir))
	require.NoError(t, err)
	secondData, err := os.ReadFile(second.PrimaryPath)
	require.NoError(t, err)

	// IDs are stable (onX ids or deterministic survivors), so reruns
	// reproduce the identical primary file.
	assert.Equal(t, string(firstData), string(secondData))
}

func TestMigrate_DebugDescriptions(t *testing.T) {
	gpxPath, outDir := writeExportPair(t)

	res, err := cairn.Migrate(context.Background(), gpxPath,
		cairn.WithOutputDir(outDir),
		cairn.WithDescriptionMode(cairn.DescriptionDebug),
	)
	require.NoError(t, err)

	primary := readFeatureCollection(t, res.PrimaryPath)
	found := false
	for _, f := range primary.Features {
		if f.Properties["class"] != "Marker" {
			continue
		}
		desc, _ := f.Properties["description"].(string)
		if strings.Contains(desc, "cairn:source=") && strings.Contains(desc, "OnX:id=wp-1") {
			found = true
		}
	}
	assert.True(t, found, "debug block missing from marker description")
}
