package platform

import (
	"github.com/aretw0/introspection"
)

// PipelineState exposes internal state for observability.
type PipelineState struct {
	RunsStarted     int    `json:"runs_started"`
	RunsCompleted   int    `json:"runs_completed"`
	DedupeWaypoints bool   `json:"dedupe_waypoints"`
	DedupeShapes    bool   `json:"dedupe_shapes"`
	DescriptionMode string `json:"description_mode"`
	RouteColors     string `json:"route_colors"`
}

// State implements introspection.Introspectable.
func (p *Pipeline) State() any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PipelineState{
		RunsStarted:     p.runsStarted,
		RunsCompleted:   p.runsCompleted,
		DedupeWaypoints: p.opts.dedupeWaypoints,
		DedupeShapes:    p.opts.dedupeShapes,
		DescriptionMode: string(p.opts.descriptionMode),
		RouteColors:     string(p.opts.routeColors),
	}
}

// ComponentType implements introspection.Component.
func (p *Pipeline) ComponentType() string {
	return "pipeline"
}

var _ introspection.Introspectable = (*Pipeline)(nil)
var _ introspection.Component = (*Pipeline)(nil)
