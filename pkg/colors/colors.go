// Package colors converts between the onX rgba color strings carried on
// exported features and the hex colors CalTopo renders, and provides the
// deterministic route palette used when a track has no color of its own.
package colors

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// onX blue, the default for anything unparseable.
const (
	defaultR = 8
	defaultG = 122
	defaultB = 255
)

var rgbRe = regexp.MustCompile(`rgba?\s*\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)`)

// Parse extracts RGB components from "rgba(r,g,b,a)", "rgb(r,g,b)",
// "#RRGGBB" or bare "RRGGBB". Unparseable input yields onX blue rather
// than an error; color handling must never fail a conversion.
func Parse(s string) (r, g, b int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultR, defaultG, defaultB
	}

	if m := rgbRe.FindStringSubmatch(s); m != nil {
		r, _ = strconv.Atoi(m[1])
		g, _ = strconv.Atoi(m[2])
		b, _ = strconv.Atoi(m[3])
		return clamp(r), clamp(g), clamp(b)
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
		}
	}
	return defaultR, defaultG, defaultB
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// RGBAToHex converts an onX rgba string to CalTopo's "#RRGGBB" form.
// Empty input stays empty so callers can fall through to their own
// defaults.
func RGBAToHex(rgba string) string {
	if strings.TrimSpace(rgba) == "" {
		return ""
	}
	r, g, b := Parse(rgba)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// RoutePalette is a small, high-contrast set chosen to read well on both
// topo and satellite bases.
var RoutePalette = []string{
	"#FFAA00", // orange
	"#4CB36E", // green
	"#EF00FF", // magenta
	"#00CD00", // bright green
	"#C659A9", // purple
	"#B9AC91", // tan
	"#FF0000", // red
	"#000000", // black
	"#00A3FF", // azure
	"#8B4513", // brown
}

// PalettePick returns a deterministic route color for a name: the same
// name always maps to the same palette entry across runs. The empty name
// gets the first entry.
func PalettePick(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return RoutePalette[0]
	}
	digest := md5.Sum([]byte(n))
	idx := binary.BigEndian.Uint32(digest[:4]) % uint32(len(RoutePalette))
	return RoutePalette[idx]
}

// namedColor pairs a human-readable name with its RGB value. The set is
// the ten colors the onX waypoint picker offers.
type namedColor struct {
	name    string
	r, g, b int
}

var namedPalette = []namedColor{
	{"red-orange", 255, 51, 0},
	{"blue", 8, 122, 255},
	{"cyan", 0, 255, 255},
	{"green", 132, 212, 0},
	{"black", 0, 0, 0},
	{"white", 255, 255, 255},
	{"purple", 128, 0, 128},
	{"yellow", 255, 255, 0},
	{"red", 255, 0, 0},
	{"brown", 139, 69, 19},
}

// NearestName describes a color in words: the nearest named palette entry
// by squared RGB distance. Report rendering uses this to explain
// conflicting duplicate colors to the user.
func NearestName(s string) string {
	r, g, b := Parse(s)
	best := namedPalette[0]
	bestDist := -1
	for _, p := range namedPalette {
		dr, dg, db := r-p.r, g-p.g, b-p.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best = p
			bestDist = dist
		}
	}
	return best.name
}
