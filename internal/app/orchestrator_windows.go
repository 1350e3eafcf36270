//go:build windows

package app

import (
	"gioui.org/app"

	"github.com/justyntemme/deskshell/internal/debug"
	"github.com/justyntemme/deskshell/internal/platform"
)

// handlePlatformEvent registers the window as a drop target once its HWND
// exists.
func (o *Orchestrator) handlePlatformEvent(e any) bool {
	switch evt := e.(type) {
	case app.Win32ViewEvent:
		debug.Log(debug.APP, "Win32ViewEvent received: Valid=%v HWND=%d", evt.Valid(), evt.HWND)
		if evt.Valid() {
			platform.SetupExternalDrop(evt.HWND)
		}
		return true
	}
	return false
}
