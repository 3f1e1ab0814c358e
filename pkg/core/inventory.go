package core

// Inventory returns the document's feature counts, shaped for trace events
// and run summaries.
func (d *Document) Inventory() map[string]any {
	return map[string]any{
		"folder_count":   len(d.Folders),
		"waypoint_count": len(d.Waypoints()),
		"track_count":    len(d.Tracks()),
		"shape_count":    len(d.Shapes()),
		"item_count":     len(d.Items),
		"source":         d.Meta.Source,
		"path":           d.Meta.Path,
	}
}
