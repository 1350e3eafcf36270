//go:build !darwin

package config

// DefaultHotkeys returns the default file box shortcuts for Windows/Linux
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		SelectAll:      "Ctrl+A",
		ClearSelection: "Escape",
		Open:           "Enter",
		Refresh:        "F5",
		ToggleHidden:   "Ctrl+H",
		NextBox:        "Ctrl+Tab",
	}
}
