//go:build windows && !debug

package main

import "golang.org/x/sys/windows"

// manageConsole detaches the box window from the console it was started
// from unless debug output was requested.
func manageConsole(debugging bool) {
	if debugging {
		return
	}
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	kernel32.NewProc("FreeConsole").Call()
}
