package layout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/orrery/pkg/metrics"
)

// DefaultDebounce is how long a ConfigWatcher coalesces filesystem events
// before reloading. Editors that write-then-rename emit several events per
// save; one reload should come out the other end.
const DefaultDebounce = 100 * time.Millisecond

// Common watcher errors.
var (
	ErrConfigRemoved  = errors.New("watched config file was removed")
	ErrAlreadyStarted = errors.New("config watcher already started")
)

// WatchOption configures a ConfigWatcher.
type WatchOption func(*ConfigWatcher)

// WithDebounce sets how long to coalesce rapid rewrites before reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *ConfigWatcher) {
		w.debounce.delay = d
	}
}

// WithOnReload sets the callback invoked with each freshly loaded config.
func WithOnReload(fn func(Config)) WatchOption {
	return func(w *ConfigWatcher) {
		w.onReload = fn
	}
}

// WithOnError sets the callback invoked on watch and load errors.
func WithOnError(fn func(error)) WatchOption {
	return func(w *ConfigWatcher) {
		w.onError = fn
	}
}

// ConfigWatcher reloads a layout configuration file whenever it changes on
// disk, so relaxation parameters can be tuned while a scene is open. Fresh
// configs are delivered on Reloads and to the OnReload callback; a file
// that fails to load keeps the previous config in force and reports the
// error instead.
//
// Callbacks run on the watcher's goroutines and may overlap with each
// other; keep them short.
type ConfigWatcher struct {
	path     string
	onReload func(Config)
	onError  func(error)

	debounce debouncer
	reloads  chan Config

	mu        sync.RWMutex
	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	started   bool
}

// NewConfigWatcher creates a watcher for the layout config at path. The
// file does not have to exist yet; creating it later counts as a change.
func NewConfigWatcher(path string, opts ...WatchOption) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &ConfigWatcher{
		path:     absPath,
		onReload: func(Config) {},
		onError:  func(error) {},
		debounce: debouncer{delay: DefaultDebounce},
		reloads:  make(chan Config, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start begins watching the config file for changes.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}

	// Watch the containing directory, not the file: editors that replace
	// the file on save would otherwise silently detach the watch.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching config directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fsWatcher = fsw
	w.cancel = cancel
	w.started = true

	go w.watch(ctx, fsw)

	return nil
}

// Stop stops watching. The watcher can be started again.
// Note: the reloads channel is intentionally NOT closed here. Closing it
// would race with an in-flight reload and turn blocked readers into a busy
// loop over the zero Config. Readers should select on Reloads alongside
// their own done signal.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debounce.Cancel()
	w.started = false
}

// IsStarted returns true if the watcher is running.
func (w *ConfigWatcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Path returns the watched config file path.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// Reloads returns a channel that receives each freshly loaded config.
// The channel holds only the newest config: an unread one is replaced
// rather than queued, so a slow reader always sees the latest state.
func (w *ConfigWatcher) Reloads() <-chan Config {
	return w.reloads
}

// watch dispatches fsnotify events until the context is cancelled.
func (w *ConfigWatcher) watch(ctx context.Context, fsw *fsnotify.Watcher) {
	targetFile := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			// The directory watch reports sibling files too.
			if filepath.Base(event.Name) != targetFile {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(ErrConfigRemoved)

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debounce.Trigger(w.reload)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// reload loads the config and delivers it to the callback and channel.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()

	// Best-effort guard against a debounce timer firing after Stop. The
	// remaining race window is harmless: delivering one extra config is
	// idempotent.
	if !started {
		return
	}

	defer metrics.Timer(metrics.ConfigReload)()

	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.onError(err)
		return
	}

	w.onReload(cfg)

	// Replace any unread config so the channel always holds the newest.
	select {
	case <-w.reloads:
	default:
	}
	select {
	case w.reloads <- cfg:
	default:
	}
}

// debouncer coalesces bursts of triggers into a single callback: each
// trigger restarts the delay, and the callback runs once it elapses
// without another trigger.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// Trigger schedules fn after the delay, replacing any pending callback.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending callback.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
