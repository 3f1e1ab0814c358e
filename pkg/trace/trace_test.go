package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cairn/pkg/core"
)

func TestWriterAndReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Emit(core.Event{Name: "run.start", Fields: map[string]any{"command": "migrate"}})
	w.Emit(core.Event{Name: "dedup.group", Fields: map[string]any{
		"kept_id":     "a",
		"dropped_ids": []string{"b", "c"},
	}})
	w.Emit(core.Event{Name: "run.end"})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0]["event"] != "run.start" || events[0]["command"] != "migrate" {
		t.Errorf("first event = %v", events[0])
	}
	if _, ok := events[0]["ts"]; !ok {
		t.Error("timestamp not added")
	}
	if events[1]["kept_id"] != "a" {
		t.Errorf("second event = %v", events[1])
	}
}

func TestWriterKeepsCallerTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Emit(core.Event{Name: "x", Fields: map[string]any{"ts": "2024-01-01T00:00:00Z"}})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if events[0]["ts"] != "2024-01-01T00:00:00Z" {
		t.Errorf("ts = %v", events[0]["ts"])
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	content := "{\"event\":\"a\"}\n\n\n{\"event\":\"b\"}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("events = %d, want 2", len(events))
	}
}
