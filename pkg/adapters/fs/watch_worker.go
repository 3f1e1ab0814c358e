package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig configures a WatchWorker.
type WatchConfig struct {
	// Dir is the directory tree to watch for new exports.
	Dir string
	// Glob filters event paths relative to Dir (e.g. "**/*.gpx").
	Glob string
	// Convert is invoked once per settled matching file.
	Convert func(ctx context.Context, gpxPath string) error
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
	// Debounce is how long a path must stay quiet before converting.
	// Zero means 500ms; exports are written in several bursts.
	Debounce time.Duration
}

// WatchWorker watches a directory for new onX exports and runs the
// conversion callback for each file matching the glob. It is a lifecycle
// worker: Start/Stop are managed, the run loop is panic-contained, and
// context cancellation shuts it down cleanly.
type WatchWorker struct {
	*worker.BaseWorker
	cfg       WatchConfig
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

// NewWatchWorker creates a watch worker for the given configuration.
func NewWatchWorker(cfg WatchConfig) *WatchWorker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &WatchWorker{
		BaseWorker: worker.NewBaseWorker("export-watcher"),
		cfg:        cfg,
	}
}

func (w *WatchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := recursiveAdd(watcher, w.cfg.Dir); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.cfg.Debounce)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *WatchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *WatchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// recursiveAdd registers the directory and all subdirectories.
func recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// run is the main event loop for the watcher worker.
func (w *WatchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			var stack string
			if w.cfg.Logger.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}
			w.cfg.Logger.Error("watcher panic", "error", panicErr, "stack", stack)
			err = panicErr
		}
		w.debouncer.stop()
		_ = w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.cfg.Logger.Error("fsnotify error", "error", wErr)
		}
	}
}

// handleEvent filters, debounces, and dispatches one filesystem event.
func (w *WatchWorker) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// A new subdirectory may receive exports later.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = recursiveAdd(w.watcher, event.Name)
			return
		}
	}

	if !MatchesGlob(w.cfg.Dir, w.cfg.Glob, event.Name) {
		w.cfg.Logger.Debug("event ignored", "path", event.Name)
		return
	}

	path := event.Name
	w.debouncer.add(path, func() {
		w.convert(ctx, path)
	})
}

// convert runs the conversion callback inside a tracked, panic-contained
// goroutine.
func (w *WatchWorker) convert(ctx context.Context, path string) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		w.cfg.Logger.Info("export detected", "path", path)
		if err := w.cfg.Convert(ctx, path); err != nil {
			w.cfg.Logger.Error("conversion failed", "path", path, "error", err)
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.cfg.Logger.Error("conversion panic", "path", path, "error", err)
	}))
}

// debouncer coalesces bursts of events per key, firing the callback only
// after the key has been quiet for the full delay.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
}
