package core

// Event is one structured trace record. Fields are flattened next to the
// event name when serialized, so the payload stays one level deep.
type Event struct {
	Name   string
	Fields map[string]any
}

// Tracer receives structured events from the engines.
//
// Tracing is strictly observational: engines behave identically whether
// the tracer is a real sink or NopTracer, and implementations must not
// mutate anything reachable from an Event.
type Tracer interface {
	Emit(ev Event)
}

// NopTracer discards every event. It is the default everywhere a Tracer
// is optional.
type NopTracer struct{}

func (NopTracer) Emit(Event) {}

var _ Tracer = NopTracer{}

// orNop normalizes a possibly-nil tracer so engines never have to check.
func orNop(tr Tracer) Tracer {
	if tr == nil {
		return NopTracer{}
	}
	return tr
}
