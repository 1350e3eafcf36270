package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/deskshell/internal/debug"
)

// BoxWatcher watches the open box folder and reports, debounced, when its
// listing needs a refresh. Only one folder is watched at a time.
type BoxWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	path     string      // Currently watched folder, "" when none
	notify   chan string // Receives the folder that changed
	done     chan struct{}
	debounce time.Duration
}

// NewBoxWatcher creates a watcher that waits for debounce of quiet before
// notifying.
func NewBoxWatcher(debounce time.Duration) (*BoxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	bw := &BoxWatcher{
		watcher:  w,
		notify:   make(chan string, 10),
		done:     make(chan struct{}),
		debounce: debounce,
	}

	go bw.run()
	return bw, nil
}

// run processes filesystem events with debouncing
func (bw *BoxWatcher) run() {
	var (
		lastEvent time.Time
		pending   string
	)
	ticker := time.NewTicker(bw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-bw.done:
			return

		case event, ok := <-bw.watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)) {
				continue
			}

			bw.mu.Lock()
			box := bw.path
			bw.mu.Unlock()

			// Changes to entries report the entry path; changes to the box itself
			// report the box path
			if box != "" && (filepath.Dir(event.Name) == box || event.Name == box) {
				lastEvent = time.Now()
				pending = box
				debug.Log(debug.FS, "FSNotify event: %s on %s", event.Op, event.Name)
			}

		case err, ok := <-bw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.FS, "FSNotify error: %v", err)

		case <-ticker.C:
			if pending == "" || time.Since(lastEvent) < bw.debounce {
				continue
			}
			select {
			case bw.notify <- pending:
				debug.Log(debug.FS, "Box change notification: %s", pending)
			default:
				// A notification is already queued
			}
			pending = ""
		}
	}
}

// Watch replaces the watched folder with path
func (bw *BoxWatcher) Watch(path string) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.path == path {
		return nil
	}
	if bw.path != "" {
		if err := bw.watcher.Remove(bw.path); err != nil {
			// The old folder may already be gone
			debug.Log(debug.FS, "Error unwatching %s: %v", bw.path, err)
		}
		bw.path = ""
	}

	if err := bw.watcher.Add(path); err != nil {
		return err
	}
	bw.path = path
	debug.Log(debug.FS, "Now watching box: %s", path)
	return nil
}

// Path returns the watched folder
func (bw *BoxWatcher) Path() string {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.path
}

// Notify returns the channel that receives change notifications
func (bw *BoxWatcher) Notify() <-chan string {
	return bw.notify
}

// Close shuts down the watcher
func (bw *BoxWatcher) Close() error {
	close(bw.done)
	return bw.watcher.Close()
}
