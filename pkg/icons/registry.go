// Package icons maps onX icon names to CalTopo marker symbols through a
// user-editable YAML registry, and keeps an append-only catalog of icon
// labels observed in inputs.
package icons

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping sources reported by MapIcon.
const (
	SourceDirect  = "direct"
	SourceDefault = "default"
)

// PolicyAppendToDescription is the only supported unknown-icon policy:
// keep the default point symbol and append the original icon name to the
// feature description so the user can recover it.
const PolicyAppendToDescription = "keep_point_and_append_to_description"

var (
	ErrUnsupportedVersion = errors.New("unsupported icon mappings version")
	ErrUnknownPolicy      = errors.New("unknown icon handling policy")
)

// registryFile models the YAML document.
type registryFile struct {
	Version  int `yaml:"version"`
	Policies struct {
		UnknownIconHandling string `yaml:"unknown_icon_handling"`
	} `yaml:"policies"`
	OnxToCaltopo struct {
		DefaultSymbol string            `yaml:"default_symbol"`
		IconMap       map[string]string `yaml:"icon_map"`
	} `yaml:"onx_to_caltopo"`
}

// Registry resolves onX icon names to CalTopo marker symbols.
type Registry struct {
	DefaultSymbol     string
	UnknownIconPolicy string
	iconMap           map[string]string
}

// Parse validates and loads a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse icon mappings: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, file.Version)
	}
	if p := file.Policies.UnknownIconHandling; p != "" && p != PolicyAppendToDescription {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, p)
	}

	r := &Registry{
		DefaultSymbol:     normSymbol(file.OnxToCaltopo.DefaultSymbol),
		UnknownIconPolicy: file.Policies.UnknownIconHandling,
		iconMap:           make(map[string]string, len(file.OnxToCaltopo.IconMap)),
	}
	if r.DefaultSymbol == "" {
		r.DefaultSymbol = "point"
	}
	for icon, symbol := range file.OnxToCaltopo.IconMap {
		symbol = normSymbol(symbol)
		if icon == "" || symbol == "" {
			continue
		}
		r.iconMap[icon] = symbol
	}
	return r, nil
}

// Load reads and validates a registry YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read icon mappings: %w", err)
	}
	return Parse(data)
}

func normSymbol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// defaultIconMap is the embedded best-effort mapping. CalTopo's symbol set
// differs from onX's; unmapped icons fall back to the default symbol.
var defaultIconMap = map[string]string{
	"Location": "point",
	"Hazard":   "danger",
	"Barrier":  "danger",
	// Vehicles / access
	"Parking":   "automobile",
	"Trailhead": "circle-p",
	"4x4":       "automobile",
	"ATV":       "automobile",
	"Car":       "automobile",
	// Water. repair-streamcrossing is the closest widely-supported symbol.
	"Water Source":  "repair-streamcrossing",
	"Waterfall":     "repair-streamcrossing",
	"Hot Spring":    "repair-streamcrossing",
	"Potable Water": "repair-streamcrossing",
	// Camping / terrain
	"Campsite":         "camping",
	"Camp":             "camping",
	"Camp Backcountry": "camping",
	"Campground":       "camping",
	"Summit":           "peak",
	"Cabin":            "hut",
	"Shelter":          "hut",
	"House":            "hut",
	// Photo/star have no CalTopo counterpart; flag-1 is safe and non-default.
	"Photo": "flag-1",
	"View":  "flag-1",
	// Winter
	"XC Skiing":   "snowboarding",
	"Ski":         "snowboarding",
	"Snowboarder": "snowboarding",
	// Activities
	"Climbing":   "climbing-2",
	"Scrambling": "scrambling",
	// Other
	"Horseback": "point",
	"Cave":      "cave",
}

// Default returns the embedded registry used when no mappings file is
// configured.
func Default() *Registry {
	m := make(map[string]string, len(defaultIconMap))
	for k, v := range defaultIconMap {
		m[k] = v
	}
	return &Registry{
		DefaultSymbol:     "point",
		UnknownIconPolicy: PolicyAppendToDescription,
		iconMap:           m,
	}
}

// MapIcon resolves an onX icon name to a CalTopo marker symbol and reports
// whether the mapping was a direct hit or the registry default.
func (r *Registry) MapIcon(onxIcon string) (symbol, source string) {
	icon := strings.TrimSpace(onxIcon)
	if icon == "" {
		return r.DefaultSymbol, SourceDefault
	}
	if symbol, ok := r.iconMap[icon]; ok {
		return symbol, SourceDirect
	}
	return r.DefaultSymbol, SourceDefault
}

// Icons returns the mapped onX icon names in sorted order.
func (r *Registry) Icons() []string {
	out := make([]string, 0, len(r.iconMap))
	for k := range r.iconMap {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
