package core

// Annotations is the typed audit trail the engines attach to an item,
// plus a residual map for raw source fields worth keeping around.
// Writers may surface any of it but must not require it.
type Annotations struct {
	// DedupConflicts is set once by waypoint dedup when members of a
	// collapsed group disagreed on icon or color.
	DedupConflicts *FieldConflicts `json:"dedup_conflicts,omitempty"`

	// MergeDecisions records type-conflict resolutions the merge engine
	// made in this item's favor.
	MergeDecisions []MergeDecision `json:"merge_decisions,omitempty"`

	// MergeConflicts records supplemental items the merge engine ignored
	// because they collided with this item under the same external id.
	MergeConflicts []MergeConflict `json:"merge_conflicts,omitempty"`

	// Residual holds raw source fields (original name text, raw
	// description blocks, unrecognized keys) for forensics.
	Residual map[string]string `json:"residual,omitempty"`
}

// IsZero reports whether nothing has been recorded.
func (a Annotations) IsZero() bool {
	return a.DedupConflicts == nil &&
		len(a.MergeDecisions) == 0 &&
		len(a.MergeConflicts) == 0 &&
		len(a.Residual) == 0
}

// SetResidual records a raw source field, allocating the map on first use.
func (a *Annotations) SetResidual(key, value string) {
	if a.Residual == nil {
		a.Residual = make(map[string]string)
	}
	a.Residual[key] = value
}

// FieldConflicts lists the distinct non-empty values a duplicate group
// held for fields that cannot be merged. Conflicts are surfaced to the
// user, never silently resolved.
type FieldConflicts struct {
	Icons  []string `json:"OnX_icons,omitempty"`
	Colors []string `json:"OnX_colors,omitempty"`
}

// IsZero reports whether no field had conflicting values.
func (c FieldConflicts) IsZero() bool {
	return len(c.Icons) == 0 && len(c.Colors) == 0
}

// MergeDecision records that a type conflict was resolved in favor of the
// annotated item.
type MergeDecision struct {
	OnxID   string `json:"OnX_id"`
	Action  string `json:"action"`
	Dropped Kind   `json:"dropped"`
}

// MergeConflict records a supplemental item that shared this item's
// external id but could not be reconciled and was ignored.
type MergeConflict struct {
	OnxID       string `json:"OnX_id"`
	IgnoredKind Kind   `json:"ignored_kml_type"`
}
