package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	"github.com/aretw0/cairn"
	fsadapter "github.com/aretw0/cairn/pkg/adapters/fs"
)

var (
	watchOutDir string
	watchGlob   string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Convert new onX exports as they appear in a directory",
	Long: `Watch a directory tree and run the migration for every new or updated
GPX export matching the glob. A sibling KML with the same stem is merged in
automatically. Stop with Ctrl-C; in-flight conversions finish cleanly.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			fatal("Watch directory not found", fmt.Errorf("%s", dir))
		}

		cfg := loadToolConfig()
		outDir := watchOutDir
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		glob := watchGlob
		if glob == "" {
			glob = cfg.WatchGlob
		}

		pipeline := cairn.NewPipeline(
			cairn.WithLogger(slog.Default()),
			cairn.WithOutputDir(outDir),
		)

		spec := supervisor.Spec{
			Name: "export-watcher",
			Type: string(worker.TypeGoroutine),
			Factory: func() (worker.Worker, error) {
				return fsadapter.NewWatchWorker(fsadapter.WatchConfig{
					Dir:    dir,
					Glob:   glob,
					Logger: slog.Default(),
					Convert: func(ctx context.Context, gpxPath string) error {
						runSpec := cairn.RunSpec{GPXPath: gpxPath}
						if kml, ok := fsadapter.FindCompanionKML(gpxPath); ok {
							runSpec.KMLPath = kml
						}
						_, err := pipeline.Run(ctx, runSpec)
						return err
					},
				}), nil
			},
			Backoff: supervisor.Backoff{
				InitialInterval: time.Second,
				MaxInterval:     30 * time.Second,
				Multiplier:      2,
				ResetDuration:   time.Minute,
			},
			RestartPolicy: supervisor.RestartOnFailure,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sup := supervisor.New("cairn-watch", supervisor.StrategyOneForOne, spec)
		if err := sup.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}
		slog.Info("watching for exports", "dir", dir, "glob", glob, "output", outDir)

		<-ctx.Done()
		slog.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			fatal("Failed to stop watcher", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutDir, "output-dir", "o", "", "Output directory (default from config)")
	watchCmd.Flags().StringVar(&watchGlob, "glob", "", "Glob selecting exports to convert (default **/*.gpx)")
}
