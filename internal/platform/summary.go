package platform

import (
	"fmt"
	"strings"

	"github.com/aretw0/cairn/pkg/colors"
	"github.com/aretw0/cairn/pkg/core"
)

type summaryInput struct {
	GPXPath              string
	KMLPath              string
	PrimaryPath          string
	DroppedPath          string
	WaypointReport       core.DedupReport
	ShapeReport          core.ShapeDedupReport
	WaypointDedupEnabled bool
	ShapeDedupEnabled    bool
}

// renderSummary produces the human-readable SUMMARY.md explaining every
// dedup decision of a run. Dropped features are never lost; the summary
// points at the secondary GeoJSON that preserves them.
func renderSummary(in summaryInput) []byte {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("## Cairn shape dedup summary")
	line("")
	line("This file explains why some shapes were removed from the primary CalTopo import file.")
	line("Nothing is deleted permanently: every dropped feature is preserved in the secondary GeoJSON.")
	line("")
	line("### Inputs")
	line("- **GPX**: `%s`", in.GPXPath)
	line("- **KML**: `%s`", in.KMLPath)
	line("")
	line("### Outputs")
	line("- **Primary (deduped)**: `%s`", in.PrimaryPath)
	line("- **Secondary (dropped duplicates)**: `%s`", in.DroppedPath)
	line("")
	line("### Dedup policy")
	line("- **Polygon preference**: when the same onX id exists as both a route/track (GPX) and a polygon (KML), we keep the polygon and drop the line to avoid CalTopo id collisions.")
	line("- **Shape dedup**: %s (toggle via `--dedupe-shapes`).", enabledWord(in.ShapeDedupEnabled))
	line("- **Waypoint dedup**: %s (toggle via `--dedupe-waypoints`).", enabledWord(in.WaypointDedupEnabled))
	line("- **Fuzzy match definition**:")
	line("  - **Polygons**: round coordinates to 6 decimals; ignore ring start index; ignore ring direction.")
	line("  - **Lines**: round coordinates to 6 decimals; treat reversed line as equivalent.")
	line("")
	line("### Dedup results")
	line("- **Waypoint dedup dropped**: %d", in.WaypointReport.DroppedCount())
	line("- **Shape dedup groups**: %d", len(in.ShapeReport.Groups))
	line("- **Shape dedup dropped features**: %d", in.ShapeReport.DroppedCount())
	line("")
	line("### Per-group decisions")
	line("")
	if len(in.ShapeReport.Groups) == 0 {
		line("_No shape duplicates were detected under the fuzzy-match policy._")
	} else {
		for _, g := range in.ShapeReport.Groups {
			line("- **%s** `%s`", g.Kind, g.Title)
			line("  - **kept**: `%s`", g.KeptID)
			line("  - **dropped (%d)**: %s", len(g.DroppedIDs), backticked(g.DroppedIDs))
			line("  - **reason**: %s", g.Reason)
		}
	}

	if conflicts := waypointConflictLines(in.WaypointReport); len(conflicts) > 0 {
		line("")
		line("### Waypoint conflicts")
		line("")
		line("Duplicate waypoints sometimes disagree on icon or color. The kept waypoint carries")
		line("the winning value; the alternatives are listed here so nothing is silently lost.")
		line("")
		for _, c := range conflicts {
			line("%s", c)
		}
	}

	line("")
	return []byte(b.String())
}

func waypointConflictLines(report core.DedupReport) []string {
	var out []string
	for _, g := range report.Groups {
		if g.Conflicts == nil || g.Conflicts.IsZero() {
			continue
		}
		out = append(out, fmt.Sprintf("- **%s** (kept `%s`)", g.Key.NameKey, g.KeptID))
		if len(g.Conflicts.Icons) > 0 {
			out = append(out, "  - **icons**: "+strings.Join(g.Conflicts.Icons, ", "))
		}
		if len(g.Conflicts.Colors) > 0 {
			described := make([]string, 0, len(g.Conflicts.Colors))
			for _, c := range g.Conflicts.Colors {
				described = append(described, fmt.Sprintf("`%s` (%s)", c, colors.NearestName(c)))
			}
			out = append(out, "  - **colors**: "+strings.Join(described, ", "))
		}
	}
	return out
}

func backticked(ids []string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, "`"+id+"`")
	}
	return strings.Join(quoted, ", ")
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
