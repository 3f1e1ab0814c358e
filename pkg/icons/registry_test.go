package icons

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseRegistry(t *testing.T) {
	data := []byte(`
version: 1
policies:
  unknown_icon_handling: keep_point_and_append_to_description
onx_to_caltopo:
  default_symbol: Point
  icon_map:
    Campsite: " Camping "
    Summit: peak
    Blank: ""
`)
	r, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if r.DefaultSymbol != "point" {
		t.Errorf("default symbol = %q", r.DefaultSymbol)
	}

	symbol, source := r.MapIcon("Campsite")
	if symbol != "camping" || source != SourceDirect {
		t.Errorf("Campsite -> (%q, %q)", symbol, source)
	}
	// Blank target symbols are dropped, so Blank falls through to default.
	symbol, source = r.MapIcon("Blank")
	if symbol != "point" || source != SourceDefault {
		t.Errorf("Blank -> (%q, %q)", symbol, source)
	}
	symbol, source = r.MapIcon("")
	if symbol != "point" || source != SourceDefault {
		t.Errorf("empty -> (%q, %q)", symbol, source)
	}
}

func TestParseRegistryRejectsBadVersion(t *testing.T) {
	if _, err := Parse([]byte("version: 2")); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestParseRegistryRejectsUnknownPolicy(t *testing.T) {
	data := []byte("version: 1\npolicies:\n  unknown_icon_handling: auto_map_everything\n")
	if _, err := Parse(data); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("want ErrUnknownPolicy, got %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	symbol, source := r.MapIcon("Summit")
	if symbol != "peak" || source != SourceDirect {
		t.Errorf("Summit -> (%q, %q)", symbol, source)
	}
	symbol, source = r.MapIcon("Weird Custom Icon")
	if symbol != "point" || source != SourceDefault {
		t.Errorf("unknown -> (%q, %q)", symbol, source)
	}
}

func TestCatalogObserveAppendOnly(t *testing.T) {
	c := NewCatalog()
	if !c.Observe("Geocache", "Hidden Box") {
		t.Error("first observation should be new")
	}
	first := c.Icons["Geocache"]
	if c.Observe("Geocache", "Another Title") {
		t.Error("second observation should be ignored")
	}
	if c.Icons["Geocache"] != first {
		t.Error("existing entry was rewritten")
	}
	if c.Observe("", "x") {
		t.Error("empty icon must not be recorded")
	}
}

func TestCatalogSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	c := NewCatalog()
	c.Observe("Geocache", "Hidden Box")
	if err := c.SaveCatalog(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Icons["Geocache"]; !ok {
		t.Error("entry lost in round trip")
	}

	// A missing file is a fresh catalog.
	fresh, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.Icons) != 0 {
		t.Error("missing file should load empty")
	}
}
