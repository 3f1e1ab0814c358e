// Package trace provides an NDJSON sink and reader for the structured
// events the core engines emit. Trace files are one JSON object per line,
// optimized for replay and diffing rather than human reading.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/cairn/pkg/core"
)

// Writer streams core events to a file as NDJSON. It implements
// core.Tracer, so it can be handed to every engine and to the pipeline.
type Writer struct {
	path string
	f    *os.File
	buf  *bufio.Writer
	err  error
}

var _ core.Tracer = (*Writer)(nil)

// NewWriter creates (truncating) the trace file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	return &Writer{path: path, f: f, buf: bufio.NewWriter(f)}, nil
}

// Path returns the trace file location.
func (w *Writer) Path() string { return w.path }

// Emit writes one event as a single JSON line. The event name lands under
// the "event" key, the fields flatten next to it, and a UTC timestamp is
// added when the caller did not provide one. Emit cannot return an error
// (core.Tracer has none); the first write failure is kept and surfaced by
// Close.
func (w *Writer) Emit(ev core.Event) {
	if w.err != nil {
		return
	}
	record := make(map[string]any, len(ev.Fields)+2)
	for k, v := range ev.Fields {
		record[k] = v
	}
	record["event"] = ev.Name
	if _, ok := record["ts"]; !ok {
		record["ts"] = time.Now().UTC().Format(time.RFC3339)
	}

	line, err := json.Marshal(record)
	if err != nil {
		w.err = fmt.Errorf("failed to encode trace event %q: %w", ev.Name, err)
		return
	}
	if _, err := w.buf.Write(append(line, '\n')); err != nil {
		w.err = fmt.Errorf("failed to write trace event: %w", err)
	}
}

// Flush pushes buffered lines to disk.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.buf.Flush()
}

// Close flushes and closes the file, returning the first error seen over
// the writer's lifetime.
func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	closeErr := w.f.Close()
	if w.err != nil {
		return w.err
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Reader iterates the events of a trace file, skipping blank lines.
type Reader struct {
	f       *os.File
	scanner *bufio.Scanner
}

// NewReader opens a trace file for iteration.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	scanner := bufio.NewScanner(f)
	// Events carrying full member id lists can outgrow the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{f: f, scanner: scanner}, nil
}

// Next returns the next event record, or io.EOF when the file is drained.
func (r *Reader) Next() (map[string]any, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("malformed trace line: %w", err)
		}
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// ReadAll loads every event of a trace file into memory.
func ReadAll(path string) ([]map[string]any, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var events []map[string]any
	for {
		record, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, record)
	}
}
