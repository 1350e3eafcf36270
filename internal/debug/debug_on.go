//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP    Category = "APP"    // Startup, command line, window lifecycle
	SHELL  Category = "SHELL"  // Native backend calls and resource pairs
	ICON   Category = "ICON"   // Icon resolution and encoding
	DRAG   Category = "DRAG"   // Drag sessions and drop source callbacks
	STA    Category = "STA"    // Apartment thread submissions
	BRIDGE Category = "BRIDGE" // Command dispatch
	API    Category = "API"    // REST pass-through
	FS     Category = "FS"     // Box listing and file moves
	STORE  Category = "STORE"  // Database operations, settings, boxes
	UI     Category = "UI"     // Window events, icon loading

	// Detailed subcategories (use sparingly - can be verbose)
	UI_EVENT Category = "UI_EVENT" // Pointer and key handling
)

var (
	// enabledCategories controls which categories are active
	// By default, all main categories are enabled
	enabledCategories = map[Category]bool{
		APP:    true,
		SHELL:  true,
		ICON:   true,
		DRAG:   true,
		STA:    true,
		BRIDGE: true,
		API:    true,
		FS:     true,
		STORE:  true,
		UI:     true,
		// Verbose categories disabled by default
		UI_EVENT: false,
	}
	categoryMu sync.RWMutex

	// Output destination
	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	// Check environment variable for category overrides
	// Format: DESKSHELL_DEBUG=ICON,DRAG or DESKSHELL_DEBUG=all or DESKSHELL_DEBUG=none
	if env := os.Getenv("DESKSHELL_DEBUG"); env != "" {
		ParseCategories(env)
	}
}

// ParseCategories applies a category list such as "ICON,DRAG", "all" or "none".
func ParseCategories(spec string) {
	categoryMu.Lock()
	defer categoryMu.Unlock()

	spec = strings.ToUpper(strings.TrimSpace(spec))
	switch spec {
	case "":
		return
	case "ALL":
		for cat := range enabledCategories {
			enabledCategories[cat] = true
		}
	case "NONE":
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
	default:
		// Disable all first, then enable specified
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
		for _, cat := range strings.Split(spec, ",") {
			cat = strings.TrimSpace(cat)
			enabledCategories[Category(cat)] = true
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] %s", cat, msg)
}

// ListEnabled returns a slice of currently enabled categories
func ListEnabled() []Category {
	categoryMu.RLock()
	defer categoryMu.RUnlock()

	var enabled []Category
	for cat, on := range enabledCategories {
		if on {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}
