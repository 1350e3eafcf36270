//go:build !windows

package app

// handlePlatformEvent is a no-op; external drops are only accepted on Windows
func (o *Orchestrator) handlePlatformEvent(e any) bool {
	return false
}
