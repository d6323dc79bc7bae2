package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes and delivers the shadow settings
// to a callback. Window and render settings are read once at startup and are not
// reloaded.
type Watcher struct {
	mu       *sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	logger   *zap.Logger
	onChange func(ShadowConfig)
	current  ShadowConfig
	debounce time.Duration
	done     chan struct{}
	running  bool
	closed   bool
}

// WatcherOption is a functional option for configuring a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger reload results are written to. A nil logger is ignored.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits after the last file event before reloading.
// Editors often write a file in several steps.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the config file at path.
//
// Parameters:
//   - path: the config file to watch
//   - initial: the shadow settings currently in use; unchanged reloads are not delivered
//   - onChange: called from the watcher goroutine with each new set of shadow settings
//   - options: functional options
//
// Returns:
//   - *Watcher: the watcher, not yet started
//   - error: error if the platform watcher cannot be created
func NewWatcher(path string, initial ShadowConfig, onChange func(ShadowConfig), options ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	w := &Watcher{
		mu:       &sync.Mutex{},
		watcher:  fw,
		path:     abs,
		logger:   zap.NewNop(),
		onChange: onChange,
		current:  initial,
		debounce: 200 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

// Start begins watching the config file's directory. The directory is watched rather
// than the file so that editors which replace the file on save are followed.
// This method is non-blocking; events are handled on a goroutine that stops when ctx
// is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("config watcher is closed")
	}
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.running = true

	go w.run(ctx)

	w.logger.Info("watching config", zap.String("path", w.path))
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	running := w.running
	w.mu.Unlock()

	err := w.watcher.Close()
	if running {
		<-w.done
	}
	return err
}

// run is the watcher event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("config file event", zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

// reload reads the file and delivers changed shadow settings.
// A file that is missing, empty or fails to load leaves the current settings in place.
func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous shadow settings", zap.Error(err))
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		w.logger.Warn("config file is empty, keeping previous shadow settings")
		return
	}

	cfg, err := parse(w.path, data)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous shadow settings", zap.Error(err))
		return
	}

	w.mu.Lock()
	if cfg.Shadow == w.current {
		w.mu.Unlock()
		w.logger.Debug("config reloaded, shadow settings unchanged")
		return
	}
	w.current = cfg.Shadow
	w.mu.Unlock()

	w.logger.Info("shadow settings reloaded",
		zap.Float32("light_size", cfg.Shadow.LightSize),
		zap.Int("blocker_search_samples", cfg.Shadow.BlockerSearchSamples),
		zap.Int("pcf_samples", cfg.Shadow.PCFSamples),
		zap.Float32("bias", cfg.Shadow.Bias),
		zap.Float32("frustum_width", cfg.Shadow.FrustumWidth),
	)
	if w.onChange != nil {
		w.onChange(cfg.Shadow)
	}
}

// Current returns the most recently delivered shadow settings.
func (w *Watcher) Current() ShadowConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
