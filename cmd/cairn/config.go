package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cairn/internal/platform"
	"github.com/aretw0/cairn/pkg/adapters/fs"
)

const configFileName = "cairn.yaml"

var configPath string

// loadToolConfig reads the tool config, falling back to defaults when the
// file is absent. Config problems are fatal: a half-applied config is
// worse than none.
func loadToolConfig() platform.Config {
	cfg, err := platform.LoadConfig(configPath)
	if err != nil {
		fatal("Failed to load config", err)
	}
	return cfg
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tool configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a cairn.yaml with the default settings",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(configPath); err == nil {
			fatal("Config already exists", fmt.Errorf("%s", configPath))
		}
		data, err := platform.DefaultConfig().Marshal()
		if err != nil {
			fatal("Failed to render config", err)
		}
		if err := fs.WriteFileAtomic(configPath, data, 0o644); err != nil {
			fatal("Failed to write config", err)
		}
		fmt.Println("Wrote", configPath)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := loadToolConfig().Marshal()
		if err != nil {
			fatal("Failed to render config", err)
		}
		fmt.Print(string(data))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", configFileName, "Path to the tool config file")
}
