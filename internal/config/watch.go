package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc re-reads the configuration after a watched file changed.
type ReloadFunc func() (*Config, error)

// Watcher reloads configuration when one of its files changes on disk.
type Watcher struct {
	files    map[string]bool
	reload   ReloadFunc
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for files. onChange receives every
// configuration that reloads and validates successfully.
func NewWatcher(files []string, reload ReloadFunc, onChange func(*Config)) *Watcher {
	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		reload:   reload,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			w.files[abs] = true
		}
	}
	return w
}

// SetDebounce overrides the quiet period before a reload fires.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled. With no files it simply waits.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.files) == 0 {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer fw.Close()

	// Watch directories: editors often replace the file instead of writing it.
	dirs := make(map[string]bool)
	for f := range w.files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[config] watcher error: %v", err)

		case <-fire:
			fire = nil
			w.apply()
		}
	}
}

func (w *Watcher) apply() {
	cfg, err := w.reload()
	if err != nil {
		log.Printf("[config] reload failed, keeping current config: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[config] reloaded config rejected: %v", err)
		return
	}
	log.Printf("[config] reloaded")
	w.onChange(cfg)
}
