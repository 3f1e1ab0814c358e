package core

import "strings"

// fillIfEmpty copies src into dst when dst is blank and src is not.
// Populated fields are never overwritten, which is what keeps the merge
// idempotent.
func fillIfEmpty(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

// removeItem drops the given item from the document by identity.
func (d *Document) removeItem(target Item) {
	for i, it := range d.Items {
		if it == target {
			d.removeIndexes(map[int]bool{i: true})
			return
		}
	}
}

// MergeGPXAndKML folds a KML-derived document into a GPX-derived base.
//
// The two documents describe the same dataset through two exports: GPX
// carries track elevation/time, KML carries polygon geometry. The base's
// items and folders are the starting point; supplemental items join or
// enrich them keyed by the stable external id on their Style. Items that
// cannot be correlated (no external id) are appended unconditionally.
//
// When the same id appears as two different variants, the Shape wins if
// either side is one, inheriting the dropped Track's styling where its own
// fields are empty; otherwise the base item is kept untouched and the
// collision is recorded on it. When both sides are the same variant, the
// base is kept and only its empty fields are enriched. No populated field
// is ever overwritten, so re-merging the same supplemental document is a
// no-op.
//
// The base is mutated in place and returned.
func MergeGPXAndKML(base, supplemental *Document, tr Tracer) *Document {
	tr = orNop(tr)

	base.EnsureFolder("OnX_import", "OnX Import", "")
	base.EnsureFolder("OnX_waypoints", "Waypoints", "OnX_import")
	base.EnsureFolder("OnX_tracks", "Tracks", "OnX_import")
	base.EnsureFolder("OnX_shapes", "Areas", "OnX_import")

	byOnxID := make(map[string]Item)
	for _, it := range base.Items {
		if oid := it.base().Style.OnxID; oid != "" {
			byOnxID[oid] = it
		}
	}

	for _, item := range supplemental.Items {
		oid := item.base().Style.OnxID
		if oid == "" {
			base.Add(item)
			tr.Emit(Event{Name: "merge.add", Fields: map[string]any{
				"reason": "no_OnX_id",
				"type":   string(item.Kind()),
			}})
			continue
		}

		existing, seen := byOnxID[oid]
		if !seen {
			base.Add(item)
			byOnxID[oid] = item
			tr.Emit(Event{Name: "merge.add", Fields: map[string]any{
				"reason": "new_OnX_id",
				"OnX_id": oid,
				"type":   string(item.Kind()),
			}})
			continue
		}

		if existing.Kind() != item.Kind() {
			mergeTypeConflict(base, byOnxID, oid, existing, item, tr)
			continue
		}

		// Same variant under the same id: keep the base, enrich its gaps.
		switch ex := existing.(type) {
		case *Track:
			in := item.(*Track)
			fillIfEmpty(&ex.Notes, in.Notes)
			fillIfEmpty(&ex.Style.OnxColorRGBA, in.Style.OnxColorRGBA)
		case *Waypoint:
			in := item.(*Waypoint)
			fillIfEmpty(&ex.Notes, in.Notes)
			fillIfEmpty(&ex.Style.OnxIcon, in.Style.OnxIcon)
			fillIfEmpty(&ex.Style.OnxColorRGBA, in.Style.OnxColorRGBA)
		case *Shape:
			in := item.(*Shape)
			if len(ex.Rings) == 0 && len(in.Rings) > 0 {
				ex.Rings = in.Rings
			}
		}
	}

	base.Meta.MergedKML = true
	base.Meta.KMLPath = supplemental.Meta.Path
	return base
}

// mergeTypeConflict resolves two items of different variants colliding on
// one external id. If either side is a Shape it survives; otherwise the
// base item is kept unconditionally and the supplemental one ignored.
func mergeTypeConflict(base *Document, byOnxID map[string]Item, oid string, existing, item Item, tr Tracer) {
	var keep *Shape
	var drop Item
	switch {
	case existing.Kind() == KindShape:
		keep = existing.(*Shape)
		drop = item
	case item.Kind() == KindShape:
		keep = item.(*Shape)
		drop = existing
	}

	if keep != nil {
		// A GPX track often carries the styling the polygon lacks.
		if t, ok := drop.(*Track); ok {
			fillIfEmpty(&keep.Notes, t.Notes)
			fillIfEmpty(&keep.Style.OnxColorRGBA, t.Style.OnxColorRGBA)
			fillIfEmpty(&keep.Style.OnxStyle, t.Style.OnxStyle)
			fillIfEmpty(&keep.Style.OnxWeight, t.Style.OnxWeight)
		}

		if keep == item {
			base.Add(keep)
			byOnxID[oid] = keep
		}
		base.removeItem(drop)

		keep.Annotations.MergeDecisions = append(keep.Annotations.MergeDecisions, MergeDecision{
			OnxID:   oid,
			Action:  "prefer_polygon",
			Dropped: drop.Kind(),
		})
		tr.Emit(Event{Name: "merge.prefer_polygon", Fields: map[string]any{
			"OnX_id":       oid,
			"kept_type":    string(KindShape),
			"dropped_type": string(drop.Kind()),
		}})
		return
	}

	// Neither side is a Shape (e.g. Waypoint vs Track). Keep the base item
	// untouched; an unrelated type collision must never corrupt it.
	existing.base().Annotations.MergeConflicts = append(existing.base().Annotations.MergeConflicts, MergeConflict{
		OnxID:       oid,
		IgnoredKind: item.Kind(),
	})
	tr.Emit(Event{Name: "merge.ignore", Fields: map[string]any{
		"OnX_id":       oid,
		"kept_type":    string(existing.Kind()),
		"ignored_type": string(item.Kind()),
	}})
}
