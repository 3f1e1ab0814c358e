package onx

import "testing"

func TestParseDescKV(t *testing.T) {
	desc := "name=Camp Muir\nnotes=first line\nsecond line\nid=abc-123\ncolor=rgba(255,51,0,1)\nicon=Campsite"
	kv, notes := ParseDescKV(desc)

	if kv["name"] != "Camp Muir" {
		t.Errorf("name = %q", kv["name"])
	}
	if notes != "first line\nsecond line" {
		t.Errorf("notes = %q", notes)
	}
	if kv["id"] != "abc-123" || kv["icon"] != "Campsite" {
		t.Errorf("kv = %v", kv)
	}
}

func TestParseDescKV_LeadingBareLineIsNotes(t *testing.T) {
	kv, notes := ParseDescKV("just a note about the place\nid=xyz")
	if notes != "just a note about the place" {
		t.Errorf("notes = %q", notes)
	}
	if kv["id"] != "xyz" {
		t.Errorf("id = %q", kv["id"])
	}
}

func TestParseDescKV_UnknownKeyContinuesValue(t *testing.T) {
	// "url=" is not an onX key, so the line belongs to the notes.
	_, notes := ParseDescKV("notes=see also\nurl=https://example.com/x")
	if notes != "see also\nurl=https://example.com/x" {
		t.Errorf("notes = %q", notes)
	}
}

func TestParseDescKV_Empty(t *testing.T) {
	kv, notes := ParseDescKV("")
	if len(kv) != 0 || notes != "" {
		t.Errorf("kv=%v notes=%q", kv, notes)
	}
}
