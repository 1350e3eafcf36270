//go:build !debug

// Package debug provides a centralized, categorized debug logging system.
// This is the no-op version for release builds.
package debug

// Enabled indicates whether debug logging is active
const Enabled = false

// Category represents a debug logging category
type Category string

const (
	APP      Category = "APP"
	SHELL    Category = "SHELL"
	ICON     Category = "ICON"
	DRAG     Category = "DRAG"
	STA      Category = "STA"
	BRIDGE   Category = "BRIDGE"
	API      Category = "API"
	FS       Category = "FS"
	STORE    Category = "STORE"
	UI       Category = "UI"
	UI_EVENT Category = "UI_EVENT"
)

// Log is a no-op in release builds
func Log(cat Category, format string, args ...interface{}) {}

// ParseCategories is a no-op in release builds
func ParseCategories(spec string) {}

// ListEnabled returns nil in release builds
func ListEnabled() []Category { return nil }
