package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/cairn/pkg/adapters/onx"
	"github.com/aretw0/cairn/pkg/core"
	"github.com/aretw0/cairn/pkg/icons"
)

var iconsCatalogPath string

// effectiveRegistry loads the configured icon mappings, or the embedded
// defaults when the config names none.
func effectiveRegistry() *icons.Registry {
	cfg := loadToolConfig()
	if cfg.IconMappings == "" {
		return icons.Default()
	}
	reg, err := icons.Load(cfg.IconMappings)
	if err != nil {
		fatal("Failed to load icon mappings", err)
	}
	return reg
}

// readExport parses a .gpx or .kml export by extension.
func readExport(path string) (*core.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".kml") {
		return onx.ReadKML(path, nil)
	}
	return onx.ReadGPX(path, nil)
}

// exportIcons collects the distinct onX icons in a document, with one
// example title each, in first-seen order.
func exportIcons(doc *core.Document) (names []string, examples map[string]string) {
	examples = make(map[string]string)
	for _, wp := range doc.Waypoints() {
		icon := strings.TrimSpace(wp.Style.OnxIcon)
		if icon == "" {
			continue
		}
		if _, seen := examples[icon]; !seen {
			names = append(names, icon)
			examples[icon] = wp.Name
		}
	}
	return names, examples
}

// iconsCmd represents the icons command
var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Inspect onX→CalTopo icon mappings",
}

var iconsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective icon mapping table",
	Run: func(cmd *cobra.Command, args []string) {
		reg := effectiveRegistry()
		names := reg.Icons()
		sort.Strings(names)
		for _, name := range names {
			symbol, _ := reg.MapIcon(name)
			fmt.Printf("%-30s -> %s\n", name, symbol)
		}
		fmt.Printf("\n%d mappings, default symbol %q\n", len(names), reg.DefaultSymbol)
	},
}

var iconsCheckCmd = &cobra.Command{
	Use:   "check <export.gpx|export.kml>",
	Short: "Report icons in an export that have no CalTopo mapping",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reg := effectiveRegistry()
		doc, err := readExport(args[0])
		if err != nil {
			fatal("Failed to read export", err)
		}

		names, examples := exportIcons(doc)
		unmapped := 0
		for _, icon := range names {
			symbol, source := reg.MapIcon(icon)
			if source == icons.SourceDirect {
				fmt.Printf("ok       %-30s -> %s\n", icon, symbol)
				continue
			}
			unmapped++
			fmt.Printf("unmapped %-30s (e.g. %q) -> %s\n", icon, examples[icon], symbol)
		}
		if unmapped == 0 {
			fmt.Println("All icons mapped.")
		} else {
			fmt.Printf("%d unmapped icon(s); they will use the default symbol and keep their name in the description.\n", unmapped)
		}
	},
}

var iconsCatalogCmd = &cobra.Command{
	Use:   "catalog <export.gpx|export.kml>",
	Short: "Record the icons seen in an export into the catalog file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := readExport(args[0])
		if err != nil {
			fatal("Failed to read export", err)
		}

		catalog, err := icons.LoadCatalog(iconsCatalogPath)
		if err != nil {
			fatal("Failed to load catalog", err)
		}

		names, examples := exportIcons(doc)
		added := 0
		for _, icon := range names {
			if catalog.Observe(icon, examples[icon]) {
				added++
			}
		}
		if err := catalog.SaveCatalog(iconsCatalogPath); err != nil {
			fatal("Failed to save catalog", err)
		}
		fmt.Printf("Cataloged %d new icon(s) (%d total) in %s\n", added, len(catalog.Icons), iconsCatalogPath)
	},
}

func init() {
	rootCmd.AddCommand(iconsCmd)
	iconsCmd.AddCommand(iconsListCmd)
	iconsCmd.AddCommand(iconsCheckCmd)
	iconsCmd.AddCommand(iconsCatalogCmd)
	iconsCatalogCmd.Flags().StringVar(&iconsCatalogPath, "catalog", "catalog.yaml", "Catalog file to append to")
}
