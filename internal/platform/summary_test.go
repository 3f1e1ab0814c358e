package platform

import (
	"strings"
	"testing"

	"github.com/aretw0/cairn/pkg/core"
)

func TestRenderSummaryEmptyReport(t *testing.T) {
	out := string(renderSummary(summaryInput{
		GPXPath:              "in.gpx",
		KMLPath:              "in.kml",
		PrimaryPath:          "out/in.json",
		DroppedPath:          "out/in_dropped_shapes.json",
		WaypointDedupEnabled: true,
		ShapeDedupEnabled:    true,
	}))

	for _, want := range []string{
		"## Cairn shape dedup summary",
		"`in.gpx`",
		"`out/in.json`",
		"**Waypoint dedup dropped**: 0",
		"_No shape duplicates were detected under the fuzzy-match policy._",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if strings.Contains(out, "### Waypoint conflicts") {
		t.Error("conflict section should be absent when nothing conflicted")
	}
}

func TestRenderSummaryGroupsAndConflicts(t *testing.T) {
	in := summaryInput{
		GPXPath:              "in.gpx",
		PrimaryPath:          "out/in.json",
		DroppedPath:          "out/in_dropped_shapes.json",
		WaypointDedupEnabled: true,
		ShapeDedupEnabled:    true,
	}
	in.ShapeReport.Groups = []core.ShapeDedupGroup{{
		Kind:       "Polygon",
		Title:      "Unit 12",
		KeptID:     "a",
		DroppedIDs: []string{"b", "c"},
		Reason:     "fuzzy_geometry_signature_match",
	}}
	in.WaypointReport.Groups = []core.DedupGroup{{
		Key:    core.DedupKey{NameKey: "camp", Lat6: 44.1, Lon6: -120.5},
		KeptID: "w1",
		Conflicts: &core.FieldConflicts{
			Colors: []string{"rgba(255,0,0,1)", "rgba(8,122,255,1)"},
		},
	}}

	out := string(renderSummary(in))
	for _, want := range []string{
		"- **Polygon** `Unit 12`",
		"**kept**: `a`",
		"**dropped (2)**: `b`, `c`",
		"fuzzy_geometry_signature_match",
		"### Waypoint conflicts",
		"`rgba(255,0,0,1)` (red)",
		"`rgba(8,122,255,1)` (blue)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
