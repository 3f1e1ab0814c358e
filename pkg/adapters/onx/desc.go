// Package onx reads onX Backcountry GPX and KML exports into the canonical
// document model. onX stuffs a key/value block into <desc> and custom
// extension elements into GPX; KML strips styling but carries polygon
// geometry and an <ExtendedData> block.
package onx

import (
	"regexp"
	"strings"
)

// descKVKeys are the keys onX is known to emit in a <desc> block.
var descKVKeys = map[string]bool{
	"name":   true,
	"notes":  true,
	"id":     true,
	"color":  true,
	"icon":   true,
	"style":  true,
	"weight": true,
	"type":   true,
}

var descKVRe = regexp.MustCompile(`^([a-zA-Z0-9_-]+)=(.*)$`)

// ParseDescKV parses an onX <desc> key/value block.
//
// The common structure is:
//
//	name=...
//	notes=...   (may span lines)
//	id=...
//	color=rgba(...)
//	icon=Location
//
// Lines whose key is not a known onX key, and bare lines, continue the
// value of the current key; a leading bare line starts the notes. Returns
// the discovered keys plus the notes text.
func ParseDescKV(desc string) (map[string]string, string) {
	desc = strings.Trim(desc, "\n")
	if desc == "" {
		return map[string]string{}, ""
	}

	kv := make(map[string]string)
	currentKey := ""
	var currentValue []string

	flush := func() {
		if currentKey == "" {
			return
		}
		kv[currentKey] = strings.Trim(strings.Join(currentValue, "\n"), "\n")
		currentKey = ""
		currentValue = nil
	}

	for _, line := range strings.Split(desc, "\n") {
		if m := descKVRe.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			if descKVKeys[key] {
				flush()
				currentKey = key
				currentValue = []string{m[2]}
				continue
			}
		}

		// Continuation line (commonly notes).
		if currentKey == "" {
			// The block doesn't open with key=value: treat it all as notes.
			currentKey = "notes"
			currentValue = []string{line}
		} else {
			currentValue = append(currentValue, line)
		}
	}
	flush()

	return kv, kv["notes"]
}
