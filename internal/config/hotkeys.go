package config

import (
	"strings"

	"gioui.org/io/event"
	"gioui.org/io/key"
)

// Hotkey represents a parsed keyboard shortcut
type Hotkey struct {
	Key       key.Name
	Modifiers key.Modifiers
}

// ParseHotkey parses a hotkey string like "Ctrl+Shift+N" into a Hotkey struct
func ParseHotkey(s string) Hotkey {
	if s == "" {
		return Hotkey{}
	}

	var mods key.Modifiers
	var rawKeyPart string

	parts := strings.Split(s, "+")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "ctrl", "control":
			mods |= key.ModCtrl
		case "shift":
			mods |= key.ModShift
		case "alt", "option":
			mods |= key.ModAlt
		case "cmd", "command":
			mods |= key.ModCommand // Use ModCommand for macOS Cmd key
		case "super", "meta", "win", "windows":
			mods |= key.ModSuper // Use ModSuper for Windows logo key
		default:
			// This is the key name
			rawKeyPart = part
		}
	}

	// Convert the key part to key.Name
	keyName := parseKeyName(rawKeyPart)

	// If Shift is held and this is a number key, convert to the shifted character
	// because Gio reports the shifted character (e.g., Shift+1 = "!")
	// Note: Punctuation should be specified directly (e.g., "Cmd+Shift+>" not "Cmd+Shift+.")
	if mods.Contain(key.ModShift) {
		if shifted, ok := shiftedNumbers[string(keyName)]; ok {
			keyName = key.Name(shifted)
		}
	}

	return Hotkey{Key: keyName, Modifiers: mods}
}

// shiftedNumbers maps number keys to their shifted equivalents (US keyboard layout)
// This is needed because Gio reports the shifted character, not the physical key
// Note: Punctuation should be specified directly as the shifted character (e.g., ">" not ".")
var shiftedNumbers = map[string]string{
	"1": "!", "2": "@", "3": "#", "4": "$", "5": "%",
	"6": "^", "7": "&", "8": "*", "9": "(", "0": ")",
}

// unshiftedNumbers is the reverse mapping for display purposes
var unshiftedNumbers = map[string]string{
	"!": "1", "@": "2", "#": "3", "$": "4", "%": "5",
	"^": "6", "&": "7", "*": "8", "(": "9", ")": "0",
}

// keyAliases maps accepted spellings to Gio key names
var keyAliases = map[string]key.Name{
	"up": key.NameUpArrow, "uparrow": key.NameUpArrow,
	"down": key.NameDownArrow, "downarrow": key.NameDownArrow,
	"left": key.NameLeftArrow, "leftarrow": key.NameLeftArrow,
	"right": key.NameRightArrow, "rightarrow": key.NameRightArrow,
	"home": key.NameHome, "end": key.NameEnd,
	"pageup": key.NamePageUp, "pgup": key.NamePageUp,
	"pagedown": key.NamePageDown, "pgdn": key.NamePageDown,
	"enter": key.NameReturn, "return": key.NameReturn,
	"tab": key.NameTab, "space": key.NameSpace,
	"backspace": key.NameDeleteBackward,
	"delete": key.NameDeleteForward, "del": key.NameDeleteForward,
	"escape": key.NameEscape, "esc": key.NameEscape,
}

// parseKeyName converts a key string to Gio's key.Name
func parseKeyName(s string) key.Name {
	// Single letters: key.Name uses uppercase
	if len(s) == 1 {
		return key.Name(strings.ToUpper(s))
	}
	lower := strings.ToLower(s)
	if name, ok := keyAliases[lower]; ok {
		return name
	}
	// F1..F12 share Gio's spelling once uppercased
	if len(lower) >= 2 && lower[0] == 'f' && strings.Trim(lower[1:], "0123456789") == "" {
		return key.Name(strings.ToUpper(s))
	}
	return key.Name(s)
}

// Matches checks if a key event matches this hotkey
// Uses exact matching for modifiers to distinguish between similar hotkeys
// (e.g., Ctrl+H vs Ctrl+Shift+H)
func (h Hotkey) Matches(k key.Event) bool {
	if h.Key == "" {
		return false
	}
	return k.Name == h.Key && k.Modifiers == h.Modifiers
}

// IsEmpty returns true if the hotkey is not configured
func (h Hotkey) IsEmpty() bool {
	return h.Key == ""
}

// String returns a human-readable representation of the hotkey
func (h Hotkey) String() string {
	if h.Key == "" {
		return ""
	}

	var parts []string
	if h.Modifiers.Contain(key.ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if h.Modifiers.Contain(key.ModCommand) {
		parts = append(parts, "Cmd")
	}
	if h.Modifiers.Contain(key.ModShift) {
		parts = append(parts, "Shift")
	}
	if h.Modifiers.Contain(key.ModAlt) {
		parts = append(parts, "Alt")
	}
	if h.Modifiers.Contain(key.ModSuper) {
		parts = append(parts, "Super")
	}

	// For display, convert shifted number symbols back to their original keys
	keyStr := string(h.Key)
	if h.Modifiers.Contain(key.ModShift) {
		if original, ok := unshiftedNumbers[keyStr]; ok {
			keyStr = original
		}
	}
	parts = append(parts, keyStr)
	return strings.Join(parts, "+")
}

// Filter returns a key.Filter that matches this hotkey
func (h Hotkey) Filter(focus event.Tag) key.Filter {
	return key.Filter{
		Focus:    focus,
		Name:     h.Key,
		Required: h.Modifiers,
	}
}

// HotkeyMatcher provides efficient hotkey matching from config
type HotkeyMatcher struct {
	SelectAll      Hotkey
	ClearSelection Hotkey
	Open           Hotkey
	Refresh        Hotkey
	ToggleHidden   Hotkey
	NextBox        Hotkey
}

// NewHotkeyMatcher creates a matcher from config
func NewHotkeyMatcher(cfg HotkeysConfig) *HotkeyMatcher {
	return &HotkeyMatcher{
		SelectAll:      ParseHotkey(cfg.SelectAll),
		ClearSelection: ParseHotkey(cfg.ClearSelection),
		Open:           ParseHotkey(cfg.Open),
		Refresh:        ParseHotkey(cfg.Refresh),
		ToggleHidden:   ParseHotkey(cfg.ToggleHidden),
		NextBox:        ParseHotkey(cfg.NextBox),
	}
}

// Filters returns key filters for every configured hotkey
func (m *HotkeyMatcher) Filters(focus event.Tag) []event.Filter {
	var filters []event.Filter
	for _, h := range []Hotkey{m.SelectAll, m.ClearSelection, m.Open, m.Refresh, m.ToggleHidden, m.NextBox} {
		if !h.IsEmpty() {
			filters = append(filters, h.Filter(focus))
		}
	}
	return filters
}
