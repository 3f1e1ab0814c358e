package platform

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig reports a config file that parsed but holds values the
// pipeline cannot honor.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the on-disk tool configuration (cairn.yaml). Flags override
// file values; file values override these defaults.
type Config struct {
	// OutputDir is where converted GeoJSON and reports land.
	OutputDir string `yaml:"output_dir"`
	// DescriptionMode is notes_only or debug.
	DescriptionMode string `yaml:"description_mode"`
	// RouteColors is palette, default_blue or none.
	RouteColors string `yaml:"route_colors"`
	// IconMappings optionally points at a registry YAML replacing the
	// embedded icon table.
	IconMappings string `yaml:"icon_mappings,omitempty"`
	// WatchGlob selects which files the watch command converts.
	WatchGlob string `yaml:"watch_glob"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		OutputDir:       "./caltopo_ready",
		DescriptionMode: "notes_only",
		RouteColors:     "palette",
		WatchGlob:       "**/*.gpx",
	}
}

// LoadConfig reads a cairn.yaml. A missing file is not an error; it yields
// the defaults so the tool works with zero setup.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DescriptionMode {
	case "", "notes_only", "debug":
	default:
		return fmt.Errorf("%w: description_mode %q", ErrInvalidConfig, c.DescriptionMode)
	}
	switch c.RouteColors {
	case "", "palette", "default_blue", "none":
	default:
		return fmt.Errorf("%w: route_colors %q", ErrInvalidConfig, c.RouteColors)
	}
	return nil
}

// Marshal renders the config as YAML, for `config init` and `config show`.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
