//go:build windows

package app

import "os/exec"

// platformOpen opens the file using the Windows 'start' command.
func platformOpen(path string) error {
	// The empty argument is the window title 'start' expects before a quoted path
	return exec.Command("cmd", "/c", "start", "", path).Start()
}
