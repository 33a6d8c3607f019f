// Package watcher watches the todo file for external modification and
// posts a debounced change signal. It watches the containing directory
// rather than the file itself so atomic rename-over saves (which replace
// the inode) keep being observed.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"todotui/internal/utils"
)

// DefaultDebounce batches rapid editor write bursts into one signal.
const DefaultDebounce = 250 * time.Millisecond

// Config holds watcher configuration.
type Config struct {
	Path     string        // todo file to watch
	Debounce time.Duration // debounce window, DefaultDebounce if zero
	OnChange func()        // called (from the watcher goroutine) after the debounce window
}

// Watcher monitors one file for external changes.
type Watcher struct {
	cfg  Config
	base string
	fsw  *fsnotify.Watcher

	mu      sync.Mutex
	muted   bool
	stopped bool
	stopCh  chan struct{}
}

// New creates a watcher for cfg.Path.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		cfg:    cfg,
		base:   filepath.Base(cfg.Path),
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching and launches the event loop.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.cfg.Path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
}

// Mute suppresses change signals, used around our own saves so an atomic
// rename does not echo back as an external edit.
func (w *Watcher) Mute() {
	w.mu.Lock()
	w.muted = true
	w.mu.Unlock()
}

// Unmute re-enables change signals.
func (w *Watcher) Unmute() {
	w.mu.Lock()
	w.muted = false
	w.mu.Unlock()
}

func (w *Watcher) isMuted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted
}

func (w *Watcher) eventLoop() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	resetDebounce := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.cfg.Debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			if w.isMuted() {
				continue
			}
			utils.Debugf("fs event %s on %s", event.Op, event.Name)
			resetDebounce()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Keep watching; a transient error should not kill the session.

		case <-fire:
			if w.cfg.OnChange != nil && !w.isMuted() {
				utils.Debugf("change signal for %s", w.cfg.Path)
				w.cfg.OnChange()
			}
		}
	}
}
