package core

import (
	"html"
	"math"
	"strings"
	"time"
)

// NormalizeEntities decodes XML/HTML character entities.
//
// The decode runs up to twice, stopping early when a pass changes nothing,
// because exports in the wild contain double-escaped sequences such as
// "&amp;apos;" that a single pass does not fully resolve.
func NormalizeEntities(s string) string {
	for range 2 {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return s
}

// NormalizeName prepares a display name: entities decoded, surrounding
// whitespace trimmed, interior whitespace and case preserved.
func NormalizeName(s string) string {
	return strings.TrimSpace(NormalizeEntities(s))
}

// NormalizeKey prepares a name for identity comparison: entities decoded,
// lowercased, every interior whitespace run collapsed to a single space.
// Two names with the same key are the same name.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(NormalizeEntities(s))), " ")
}

// ParseLonLat extracts lon and lat from a coordinate sequence that may
// carry extra dimensions such as [lon, lat, ele, epoch_ms]. Fewer than two
// elements is ErrShortCoordinate.
func ParseLonLat(coords []float64) (lon, lat float64, err error) {
	if len(coords) < 2 {
		return 0, 0, ErrShortCoordinate
	}
	return coords[0], coords[1], nil
}

// ParseOptionalEleTime extracts the optional elevation (index 2) and epoch
// millisecond time (index 3) from a coordinate sequence. Each field is
// taken independently; an unusable value becomes absent rather than an
// error, so partial corruption never discards the whole coordinate.
func ParseOptionalEleTime(coords []float64) (ele *float64, timeMS *int64) {
	if len(coords) >= 3 && isFinite(coords[2]) {
		v := coords[2]
		ele = &v
	}
	if len(coords) >= 4 && isFinite(coords[3]) {
		v := int64(coords[3])
		timeMS = &v
	}
	return ele, timeMS
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// iso8601Layouts are tried in order. Zone-less layouts are interpreted as
// UTC.
var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ISO8601ToEpochMS converts an ISO-8601 timestamp to epoch milliseconds.
// A trailing "Z" means UTC and a timestamp with no zone is assumed UTC.
// Empty input or any parse failure yields nil, never an error.
func ISO8601ToEpochMS(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range iso8601Layouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		ms := t.UnixMilli()
		return &ms
	}
	return nil
}
