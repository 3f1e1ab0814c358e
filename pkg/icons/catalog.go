package icons

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/cairn/pkg/adapters/fs"
)

// CatalogEntry records the first sighting of an icon label in an input.
type CatalogEntry struct {
	FirstSeen string `yaml:"first_seen"`
	Example   string `yaml:"example,omitempty"`
}

// Catalog is the append-only record of icon labels observed across runs.
// It exists so unmapped icons accumulate somewhere reviewable instead of
// vanishing; no mapping is ever derived from it automatically.
type Catalog struct {
	Version int                     `yaml:"version"`
	Icons   map[string]CatalogEntry `yaml:"icons"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Version: 1, Icons: make(map[string]CatalogEntry)}
}

// LoadCatalog reads a catalog file. A missing file yields an empty
// catalog, not an error, since the first run has nothing to load.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read icon catalog: %w", err)
	}
	c := NewCatalog()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse icon catalog: %w", err)
	}
	if c.Icons == nil {
		c.Icons = make(map[string]CatalogEntry)
	}
	return c, nil
}

// Observe records an icon label with the current UTC time and an example
// feature title. Re-observing a known icon never rewrites its entry.
// Returns true when the icon was new.
func (c *Catalog) Observe(icon, example string) bool {
	if icon == "" {
		return false
	}
	if _, seen := c.Icons[icon]; seen {
		return false
	}
	c.Icons[icon] = CatalogEntry{
		FirstSeen: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Example:   example,
	}
	return true
}

// SaveCatalog writes the catalog atomically.
func (c *Catalog) SaveCatalog(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode icon catalog: %w", err)
	}
	return fs.WriteFileAtomic(path, data, 0644)
}
