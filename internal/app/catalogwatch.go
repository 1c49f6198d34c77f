package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// CatalogWatcher watches the configuration file and invokes a callback once
// writes have settled. The parent directory is watched because editors
// often save by renaming a temporary file over the original.
type CatalogWatcher struct {
	path     string
	settle   time.Duration
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	onChange func(path string) // Called from the watcher goroutine
}

// NewCatalogWatcher creates a watcher for path. Changes are reported after
// no further events arrive for settle.
func NewCatalogWatcher(path string, settle time.Duration) (*CatalogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if settle <= 0 {
		settle = 200 * time.Millisecond
	}
	return &CatalogWatcher{path: abs, settle: settle, watcher: w}, nil
}

// OnChange sets the callback. It runs on the watcher goroutine; post to the
// event loop before touching application state.
func (c *CatalogWatcher) OnChange(callback func(path string)) {
	c.onChange = callback
}

// Path returns the absolute path being watched.
func (c *CatalogWatcher) Path() string {
	return c.path
}

// Start begins watching in a background goroutine.
func (c *CatalogWatcher) Start() {
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})
	go c.watchLoop()
}

// Stop stops the goroutine and releases the watcher.
func (c *CatalogWatcher) Stop() {
	if c.stopCh != nil {
		close(c.stopCh)
		<-c.done
		c.stopCh = nil
	}
	c.watcher.Close()
}

func (c *CatalogWatcher) watchLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.settle)
	defer ticker.Stop()

	logger := log.With().Str("module", "catalogwatch").Logger()
	var dirty bool
	var lastEvent time.Time

	for {
		select {
		case <-c.stopCh:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != c.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				dirty = true
				lastEvent = time.Now()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("watch error")
		case <-ticker.C:
			if dirty && time.Since(lastEvent) >= c.settle {
				dirty = false
				logger.Info().Str("path", c.path).Msg("catalog changed")
				if c.onChange != nil {
					c.onChange(c.path)
				}
			}
		}
	}
}
