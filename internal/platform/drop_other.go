//go:build !windows

package platform

// SetupExternalDrop configures external file drop handling (no-op outside Windows)
func SetupExternalDrop(hwnd uintptr) {}
