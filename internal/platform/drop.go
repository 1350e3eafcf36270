// Package platform receives files dropped onto the file box window from
// other applications.
package platform

import (
	"sync"

	"github.com/justyntemme/deskshell/internal/debug"
)

// DropHandler is called when files are dropped from an external source
type DropHandler func(paths []string, targetDir string)

var (
	dropMu            sync.Mutex
	dropHandler       DropHandler
	pendingDrop       []string
	currentDropTarget string
)

// SetDropHandler sets the callback for external file drops. Drops that
// arrived before a handler was set are delivered immediately.
func SetDropHandler(handler DropHandler) {
	dropMu.Lock()
	dropHandler = handler
	pending, target := pendingDrop, currentDropTarget
	if handler != nil {
		pendingDrop = nil
	}
	dropMu.Unlock()

	if handler != nil && len(pending) > 0 {
		debug.Log(debug.APP, "[DnD] delivering %d pending drops", len(pending))
		handler(pending, target)
	}
}

// SetCurrentDropTarget sets the folder dropped files are moved into
func SetCurrentDropTarget(path string) {
	dropMu.Lock()
	defer dropMu.Unlock()
	currentDropTarget = path
}

// CurrentDropTarget returns the folder dropped files are moved into
func CurrentDropTarget() string {
	dropMu.Lock()
	defer dropMu.Unlock()
	return currentDropTarget
}

// deliver hands paths to the handler, or queues them until one is set.
// The handler runs without the lock held.
func deliver(paths []string) {
	if len(paths) == 0 {
		return
	}
	dropMu.Lock()
	handler, target := dropHandler, currentDropTarget
	if handler == nil {
		debug.Log(debug.APP, "[DnD] no handler, queuing %d files", len(paths))
		pendingDrop = append(pendingDrop, paths...)
	}
	dropMu.Unlock()

	if handler != nil {
		debug.Log(debug.APP, "[DnD] delivering %d files to %q", len(paths), target)
		handler(paths, target)
	}
}
