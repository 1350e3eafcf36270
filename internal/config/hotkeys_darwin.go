//go:build darwin

package config

// DefaultHotkeys returns the default file box shortcuts for macOS
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		SelectAll:      "Cmd+A",
		ClearSelection: "Escape",
		Open:           "Cmd+Down",
		Refresh:        "Cmd+R",
		ToggleHidden:   "Cmd+Shift+>",
		NextBox:        "Cmd+]",
	}
}
