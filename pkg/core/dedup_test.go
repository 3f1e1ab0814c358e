package core

import (
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func wp(id, name string, lon, lat float64) *Waypoint {
	return &Waypoint{
		Base:  Base{ID: id, Name: name},
		Point: orb.Point{lon, lat},
	}
}

func TestDedupeWaypoints_Empty(t *testing.T) {
	kept, dropped, report := DedupeWaypoints(nil, nil)
	if len(kept) != 0 || len(dropped) != 0 || report.GroupCount() != 0 {
		t.Errorf("empty input: kept=%d dropped=%d groups=%d", len(kept), len(dropped), report.GroupCount())
	}
}

func TestDedupeWaypoints_FuzzyNameAndCoordinate(t *testing.T) {
	// Same place: case-insensitive name, coordinate jitter past the 6th decimal.
	a := wp("a", "Camp", -120.0, 45.0)
	b := wp("b", "CAMP", -120.0000001, 45.0)
	kept, dropped, report := DedupeWaypoints([]*Waypoint{a, b}, nil)

	if len(kept) != 1 || len(dropped) != 1 {
		t.Fatalf("kept=%d dropped=%d", len(kept), len(dropped))
	}
	if kept[0] != a {
		t.Errorf("tie should keep the first-seen member")
	}
	if !reflect.DeepEqual(a.SourceIDs, []string{"b"}) {
		t.Errorf("SourceIDs = %v", a.SourceIDs)
	}
	if report.GroupCount() != 1 || report.DroppedCount() != 1 {
		t.Errorf("report: groups=%d dropped=%d", report.GroupCount(), report.DroppedCount())
	}
	if report.Groups[0].Reason != "prefer_has_OnX_style_or_notes" {
		t.Errorf("reason = %q", report.Groups[0].Reason)
	}
}

func TestDedupeWaypoints_SixthDecimalIsDistinct(t *testing.T) {
	a := wp("a", "Camp", -120.000001, 45.0)
	b := wp("b", "Camp", -120.000002, 45.0)
	kept, dropped, _ := DedupeWaypoints([]*Waypoint{a, b}, nil)
	if len(kept) != 2 || len(dropped) != 0 {
		t.Errorf("6th-decimal difference must stay distinct: kept=%d dropped=%d", len(kept), len(dropped))
	}
}

func TestDedupeWaypoints_ScoreOrdering(t *testing.T) {
	plain := wp("plain", "Spring", 10, 20)
	noted := wp("noted", "Spring", 10, 20)
	noted.Notes = "reliable year round"
	styled := wp("styled", "Spring", 10, 20)
	styled.Style.OnxIcon = "Water Source"
	styled.Style.OnxColorRGBA = "rgba(0,255,255,1)"

	kept, dropped, report := DedupeWaypoints([]*Waypoint{plain, noted, styled}, nil)
	if len(kept) != 1 || kept[0] != styled {
		t.Fatalf("icon+color should beat notes; kept %v", kept)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped=%d", len(dropped))
	}
	wantIDs := []string{"plain", "noted"}
	if !reflect.DeepEqual(styled.SourceIDs, wantIDs) {
		t.Errorf("SourceIDs = %v, want %v", styled.SourceIDs, wantIDs)
	}
	if report.Groups[0].KeptID != "styled" {
		t.Errorf("kept id = %q", report.Groups[0].KeptID)
	}
}

func TestDedupeWaypoints_ConflictsRecorded(t *testing.T) {
	a := wp("a", "Gate", 1, 2)
	a.Style.OnxIcon = "Location"
	b := wp("b", "Gate", 1, 2)
	b.Style.OnxIcon = "Barrier"
	b.Style.OnxColorRGBA = "rgba(255,0,0,1)"

	kept, _, report := DedupeWaypoints([]*Waypoint{a, b}, nil)
	if len(kept) != 1 {
		t.Fatal("expected one survivor")
	}
	winner := kept[0]
	if winner.Annotations.DedupConflicts == nil {
		t.Fatal("conflicts not attached to winner")
	}
	wantIcons := []string{"Barrier", "Location"}
	if !reflect.DeepEqual(winner.Annotations.DedupConflicts.Icons, wantIcons) {
		t.Errorf("icons = %v", winner.Annotations.DedupConflicts.Icons)
	}
	// A single non-empty color is not a conflict.
	if len(winner.Annotations.DedupConflicts.Colors) != 0 {
		t.Errorf("colors = %v", winner.Annotations.DedupConflicts.Colors)
	}
	if report.Groups[0].Conflicts == nil {
		t.Error("conflicts missing from report")
	}
}

func TestDedupeWaypoints_Idempotent(t *testing.T) {
	in := []*Waypoint{
		wp("a", "Camp", -120, 45),
		wp("b", "camp", -120, 45),
		wp("c", "Summit", -121, 46),
	}
	first, _, _ := DedupeWaypoints(in, nil)
	second, dropped, report := DedupeWaypoints(first, nil)
	if len(second) != len(first) || len(dropped) != 0 || report.GroupCount() != 0 {
		t.Errorf("second pass changed output: kept=%d dropped=%d groups=%d",
			len(second), len(dropped), report.GroupCount())
	}
}

func TestDedupeWaypoints_AccumulatedSourceIDsCarryOver(t *testing.T) {
	a := wp("a", "Camp", -120, 45)
	a.SourceIDs = []string{"earlier"}
	b := wp("b", "Camp", -120, 45)
	b.Notes = "with a view"

	kept, _, _ := DedupeWaypoints([]*Waypoint{a, b}, nil)
	if kept[0] != b {
		t.Fatal("notes should win")
	}
	wantIDs := []string{"a", "earlier"}
	if !reflect.DeepEqual(b.SourceIDs, wantIDs) {
		t.Errorf("SourceIDs = %v, want %v", b.SourceIDs, wantIDs)
	}
}

func TestApplyWaypointDedup_PreservesOrder(t *testing.T) {
	doc := NewDocument(Provenance{})
	trk := &Track{Base: Base{ID: "t1", Name: "Ridge"}}
	doc.Add(wp("w1", "Camp", -120, 45))
	doc.Add(trk)
	doc.Add(wp("w2", "camp", -120, 45))
	doc.Add(wp("w3", "Summit", -121, 46))

	report := ApplyWaypointDedup(doc, nil)
	if report.DroppedCount() != 1 {
		t.Fatalf("dropped = %d", report.DroppedCount())
	}
	var ids []string
	for _, it := range doc.Items {
		ids = append(ids, it.base().ID)
	}
	want := []string{"w1", "t1", "w3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("items after dedup = %v, want %v", ids, want)
	}
}

type recordingTracer struct {
	events []Event
}

func (r *recordingTracer) Emit(ev Event) { r.events = append(r.events, ev) }

func TestDedupeWaypoints_TracerObservesButDoesNotChange(t *testing.T) {
	mk := func() []*Waypoint {
		return []*Waypoint{wp("a", "Camp", -120, 45), wp("b", "camp", -120, 45)}
	}
	keptSilent, _, _ := DedupeWaypoints(mk(), nil)

	rec := &recordingTracer{}
	keptTraced, _, _ := DedupeWaypoints(mk(), rec)

	if len(keptSilent) != len(keptTraced) || keptSilent[0].ID != keptTraced[0].ID {
		t.Error("tracer changed dedup outcome")
	}
	if len(rec.events) != 1 || rec.events[0].Name != "dedup.group" {
		t.Errorf("events = %+v", rec.events)
	}
}
