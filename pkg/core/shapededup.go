package core

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// round6Point rounds both coordinates of a point to 6 decimals.
func round6Point(p orb.Point) orb.Point {
	return orb.Point{round6(p[0]), round6(p[1])}
}

// pointLess orders points lexicographically: lon first, then lat.
func pointLess(a, b orb.Point) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// pointsLess orders point sequences lexicographically.
func pointsLess(a, b []orb.Point) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return pointLess(a[i], b[i])
		}
	}
	return len(a) < len(b)
}

// minRotation returns the lexicographically smallest cyclic rotation of seq
// using Booth's algorithm. The result is a fresh slice; seq is not modified.
func minRotation(seq []orb.Point) []orb.Point {
	n := len(seq)
	if n == 0 {
		return nil
	}
	f := make([]int, 2*n)
	for i := range f {
		f[i] = -1
	}
	k := 0
	for j := 1; j < 2*n; j++ {
		sj := seq[j%n]
		i := f[j-k-1]
		for i != -1 && sj != seq[(k+i+1)%n] {
			if pointLess(sj, seq[(k+i+1)%n]) {
				k = j - i - 1
			}
			i = f[i]
		}
		if i == -1 && sj != seq[(k+i+1)%n] {
			if pointLess(sj, seq[k%n]) {
				k = j
			}
			f[j-k] = -1
		} else {
			f[j-k] = i + 1
		}
	}
	out := make([]orb.Point, n)
	copy(out, seq[k%n:])
	copy(out[n-k%n:], seq[:k%n])
	return out
}

// encodePoints renders a point sequence as a deterministic string so a
// signature can serve as a map key.
func encodePoints(pts []orb.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p[1], 'f', -1, 64))
	}
	return b.String()
}

// reversedPoints returns a reversed copy.
func reversedPoints(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// PolygonSignature computes a rotation- and direction-invariant signature
// for a shape's outer ring, or "" when the shape has no usable ring.
//
// Coordinates are rounded to 6 decimals, a duplicated closing vertex is
// stripped, and the signature combines the minimal rotations of the forward
// and reversed vertex sequences, so two rings describing the same boundary
// compare equal regardless of starting vertex or winding. Inner rings do
// not participate.
func PolygonSignature(s *Shape) string {
	if len(s.Rings) == 0 || len(s.Rings[0]) == 0 {
		return ""
	}
	ring := make([]orb.Point, 0, len(s.Rings[0]))
	for _, p := range s.Rings[0] {
		ring = append(ring, round6Point(p))
	}
	if len(ring) >= 2 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return ""
	}
	a := encodePoints(minRotation(ring))
	b := encodePoints(minRotation(reversedPoints(ring)))
	// Order the pair canonically; a ring stored in the opposite winding
	// swaps which traversal is "forward".
	if b < a {
		a, b = b, a
	}
	return "Polygon|" + a + "|" + b
}

// LineSignature computes a direction-invariant signature for a track, or ""
// when the track has fewer than 2 points. A track and its point-reversed
// twin share a signature.
func LineSignature(t *Track) string {
	if len(t.Points) < 2 {
		return ""
	}
	pts := make([]orb.Point, 0, len(t.Points))
	for _, p := range t.Points {
		pts = append(pts, round6Point(p.Point))
	}
	rev := reversedPoints(pts)
	canonical := pts
	if pointsLess(rev, pts) {
		canonical = rev
	}
	return "LineString|" + encodePoints(canonical)
}

// ShapeDedupGroup describes one collapsed group of geometrically identical
// shapes or tracks.
type ShapeDedupGroup struct {
	Kind       string   `json:"kind"` // Polygon|LineString
	Title      string   `json:"title"`
	KeptID     string   `json:"kept_id"`
	DroppedIDs []string `json:"dropped_ids"`
	Reason     string   `json:"reason"`
}

// ShapeDedupReport summarizes a shape dedup pass.
type ShapeDedupReport struct {
	Groups []ShapeDedupGroup `json:"groups"`
}

// DroppedCount returns the total number of items dropped.
func (r ShapeDedupReport) DroppedCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.DroppedIDs)
	}
	return n
}

// shapeScore orders duplicates: richer notes first, then presence of a
// stable external id.
type shapeScore struct {
	notes int
	onxID int
}

func scoreItem(it Item) shapeScore {
	b := it.base()
	onxID := 0
	if b.Style.OnxID != "" {
		onxID = 1
	}
	return shapeScore{notes: len(strings.TrimSpace(b.Notes)), onxID: onxID}
}

func (s shapeScore) beats(o shapeScore) bool {
	if s.notes != o.notes {
		return s.notes > o.notes
	}
	return s.onxID > o.onxID
}

// ApplyShapeDedup collapses tracks and polygons that share a name and a
// geometric signature, mutating the Document in place.
//
// Items with no signature (tracks under 2 points, degenerate rings) never
// participate and pass through untouched. Items with identical geometry but
// different names are never merged; overlapping features with distinct
// labels are assumed to be intentionally distinct. Removal is positional,
// never value-based, so identical twins cannot vanish together. Dropped
// items are returned to the caller, not destroyed.
func ApplyShapeDedup(doc *Document, tr Tracer) (ShapeDedupReport, []Item) {
	tr = orNop(tr)

	type bucketKey struct {
		kind string
		name string
		sig  string
	}
	type member struct {
		item Item
		pos  int
	}
	buckets := make(map[bucketKey][]member)
	var order []bucketKey

	for pos, it := range doc.Items {
		var kind, sig string
		switch v := it.(type) {
		case *Shape:
			kind, sig = "Polygon", PolygonSignature(v)
		case *Track:
			kind, sig = "LineString", LineSignature(v)
		default:
			continue
		}
		if sig == "" {
			continue
		}
		k := bucketKey{kind: kind, name: it.base().Name, sig: sig}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], member{item: it, pos: pos})
	}

	var report ShapeDedupReport
	var dropped []Item
	drop := make(map[int]bool)

	for _, k := range order {
		members := buckets[k]
		if len(members) <= 1 {
			continue
		}

		kept := members[0]
		keptScore := scoreItem(kept.item)
		for _, m := range members[1:] {
			if sc := scoreItem(m.item); sc.beats(keptScore) {
				kept = m
				keptScore = sc
			}
		}

		var droppedIDs []string
		for _, m := range members {
			if m.pos == kept.pos {
				continue
			}
			drop[m.pos] = true
			dropped = append(dropped, m.item)
			droppedIDs = append(droppedIDs, m.item.base().ID)
		}

		report.Groups = append(report.Groups, ShapeDedupGroup{
			Kind:       k.kind,
			Title:      k.name,
			KeptID:     kept.item.base().ID,
			DroppedIDs: droppedIDs,
			Reason:     "fuzzy_geometry_signature_match",
		})

		tr.Emit(Event{Name: "shape_dedup.group", Fields: map[string]any{
			"kind":        k.kind,
			"title":       k.name,
			"kept_id":     kept.item.base().ID,
			"dropped_ids": droppedIDs,
			"reason":      "fuzzy_geometry_signature_match",
			"group_size":  len(members),
		}})
	}

	doc.removeIndexes(drop)
	return report, dropped
}
