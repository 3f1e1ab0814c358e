package core

import (
	"math"
	"sort"
	"strings"
)

// round6 rounds a coordinate to 6 decimal places, roughly 0.1m at the
// equator. Values that differ only beyond the 6th decimal collapse to the
// same key; values that differ at the 6th decimal or coarser stay distinct.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// DedupKey identifies waypoints considered the same place: same normalized
// name at the same position after rounding.
type DedupKey struct {
	NameKey string  `json:"name"`
	Lat6    float64 `json:"lat6"`
	Lon6    float64 `json:"lon6"`
}

// WaypointDedupKey computes the grouping key for a waypoint.
func WaypointDedupKey(wp *Waypoint) DedupKey {
	return DedupKey{
		NameKey: NormalizeKey(wp.Name),
		Lat6:    round6(wp.Point.Lat()),
		Lon6:    round6(wp.Point.Lon()),
	}
}

// DedupGroup describes one collapsed duplicate group.
type DedupGroup struct {
	Key        DedupKey        `json:"key"`
	KeptID     string          `json:"kept_id"`
	DroppedIDs []string        `json:"dropped_ids"`
	Reason     string          `json:"reason"`
	Conflicts  *FieldConflicts `json:"conflicts,omitempty"`
}

// DedupReport summarizes a waypoint dedup pass.
type DedupReport struct {
	Groups []DedupGroup `json:"groups"`
}

// GroupCount returns the number of duplicate groups that were collapsed.
func (r DedupReport) GroupCount() int { return len(r.Groups) }

// DroppedCount returns the total number of waypoints dropped.
func (r DedupReport) DroppedCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.DroppedIDs)
	}
	return n
}

// wpScore orders duplicates by quality: combined icon+color presence
// first, then icon presence, then notes length.
type wpScore struct {
	meta  int
	icon  int
	notes int
}

func scoreWaypoint(wp *Waypoint) wpScore {
	hasIcon := 0
	if strings.TrimSpace(wp.Style.OnxIcon) != "" {
		hasIcon = 1
	}
	hasColor := 0
	if strings.TrimSpace(wp.Style.OnxColorRGBA) != "" {
		hasColor = 1
	}
	return wpScore{
		meta:  hasIcon + hasColor,
		icon:  hasIcon,
		notes: len(strings.TrimSpace(wp.Notes)),
	}
}

// beats reports whether s is strictly better than o. Strict comparison
// keeps the earliest member on ties.
func (s wpScore) beats(o wpScore) bool {
	if s.meta != o.meta {
		return s.meta > o.meta
	}
	if s.icon != o.icon {
		return s.icon > o.icon
	}
	return s.notes > o.notes
}

// DedupeWaypoints partitions waypoints into duplicate groups and collapses
// every group onto its best member.
//
// The winner absorbs the ids and accumulated SourceIDs of the losers, so a
// consumer can trace which records were folded together. Disagreements on
// icon or color are recorded on the winner and in the group report, never
// resolved silently. Output order is order of first appearance.
func DedupeWaypoints(wps []*Waypoint, tr Tracer) (kept, dropped []*Waypoint, report DedupReport) {
	tr = orNop(tr)

	type group struct {
		key     DedupKey
		members []*Waypoint
	}
	index := make(map[DedupKey]int)
	var groups []*group
	for _, wp := range wps {
		k := WaypointDedupKey(wp)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, &group{key: k})
		}
		groups[gi].members = append(groups[gi].members, wp)
	}

	for _, g := range groups {
		if len(g.members) == 1 {
			kept = append(kept, g.members[0])
			continue
		}

		best := g.members[0]
		bestScore := scoreWaypoint(best)
		for _, wp := range g.members[1:] {
			if sc := scoreWaypoint(wp); sc.beats(bestScore) {
				best = wp
				bestScore = sc
			}
		}

		conflicts := collectFieldConflicts(g.members)

		var droppedIDs []string
		var memberIDs []string
		for _, wp := range g.members {
			memberIDs = append(memberIDs, wp.ID)
			if wp == best {
				continue
			}
			dropped = append(dropped, wp)
			droppedIDs = append(droppedIDs, wp.ID)
			absorbSourceIDs(best, wp)
		}

		var conflictsPtr *FieldConflicts
		if !conflicts.IsZero() {
			c := conflicts
			conflictsPtr = &c
			if best.Annotations.DedupConflicts == nil {
				best.Annotations.DedupConflicts = &c
			}
		}

		report.Groups = append(report.Groups, DedupGroup{
			Key:        g.key,
			KeptID:     best.ID,
			DroppedIDs: droppedIDs,
			Reason:     "prefer_has_OnX_style_or_notes",
			Conflicts:  conflictsPtr,
		})
		kept = append(kept, best)

		tr.Emit(Event{Name: "dedup.group", Fields: map[string]any{
			"key":         g.key,
			"member_ids":  memberIDs,
			"kept_id":     best.ID,
			"dropped_ids": droppedIDs,
			"conflicts":   conflicts,
		}})
	}

	return kept, dropped, report
}

// collectFieldConflicts gathers the distinct non-empty icon and color
// values across a group. A field conflicts only when it has two or more
// distinct values.
func collectFieldConflicts(members []*Waypoint) FieldConflicts {
	iconSet := make(map[string]bool)
	colorSet := make(map[string]bool)
	for _, m := range members {
		if v := strings.TrimSpace(m.Style.OnxIcon); v != "" {
			iconSet[v] = true
		}
		if v := strings.TrimSpace(m.Style.OnxColorRGBA); v != "" {
			colorSet[v] = true
		}
	}
	var c FieldConflicts
	if len(iconSet) > 1 {
		c.Icons = sortedKeys(iconSet)
	}
	if len(colorSet) > 1 {
		c.Colors = sortedKeys(colorSet)
	}
	return c
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// absorbSourceIDs merges a dropped waypoint's identity into the winner:
// its own id first, then anything it had already absorbed, skipping
// empties, duplicates and the winner's own id.
func absorbSourceIDs(best, dropped *Waypoint) {
	if dropped.ID != "" && dropped.ID != best.ID && !containsString(best.SourceIDs, dropped.ID) {
		best.SourceIDs = append(best.SourceIDs, dropped.ID)
	}
	for _, sid := range dropped.SourceIDs {
		if sid != best.ID && !containsString(best.SourceIDs, sid) {
			best.SourceIDs = append(best.SourceIDs, sid)
		}
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ApplyWaypointDedup deduplicates a Document's waypoints in place.
// Dropped waypoints leave the item list in one compaction at the end;
// every other item keeps its relative position.
func ApplyWaypointDedup(doc *Document, tr Tracer) DedupReport {
	_, dropped, report := DedupeWaypoints(doc.Waypoints(), tr)
	if len(dropped) == 0 {
		return report
	}

	droppedSet := make(map[*Waypoint]bool, len(dropped))
	for _, wp := range dropped {
		droppedSet[wp] = true
	}
	drop := make(map[int]bool)
	for i, it := range doc.Items {
		if wp, ok := it.(*Waypoint); ok && droppedSet[wp] {
			drop[i] = true
		}
	}
	doc.removeIndexes(drop)
	return report
}
