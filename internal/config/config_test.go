package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gioui.org/io/key"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestLoadCreatesDefaults(t *testing.T) {
	home := withHome(t)

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(home, ".config", "deskshell", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config at %s: %v", path, err)
	}
	if m.Path() != path {
		t.Errorf("Path: expected %s, got %s", path, m.Path())
	}

	cfg := m.Get()
	if cfg.Shell.DefaultIconSize != 64 {
		t.Errorf("expected default icon size 64, got %d", cfg.Shell.DefaultIconSize)
	}
	if cfg.API.BaseURL == "" {
		t.Error("expected a default API base URL")
	}
}

func TestLoadJSONKeepsDefaultsForMissingKeys(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "deskshell")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	data := `{"box": {"iconSize": 32, "showDotfiles": true}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.Box.IconSize != 32 || !cfg.Box.ShowDotfiles {
		t.Errorf("box section not applied: %+v", cfg.Box)
	}
	if cfg.Box.Hotkeys.Refresh == "" {
		t.Error("expected default hotkeys to survive a partial file")
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.API.Timeout())
	}
}

func TestLoadParseErrorFallsBack(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "deskshell")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load should not fail on parse errors: %v", err)
	}
	if m.ParseError() == nil {
		t.Error("expected parse error to be retained")
	}
	if m.Get().Shell.DefaultIconSize != 64 {
		t.Error("expected defaults after parse error")
	}
}

func TestYAMLTakesPrecedence(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "deskshell")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"api": {"baseURL": "http://json"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlData := strings.Join([]string{
		"api:",
		"  baseURL: http://yaml",
		"  timeoutSeconds: 5",
		"shell:",
		"  allowedEffects: [copy]",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.API.BaseURL != "http://yaml" {
		t.Errorf("expected YAML base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.API.Timeout())
	}
	if len(cfg.Shell.AllowedEffects) != 1 || cfg.Shell.AllowedEffects[0] != "copy" {
		t.Errorf("unexpected effects %v", cfg.Shell.AllowedEffects)
	}
	if cfg.Shell.DefaultIconSize != 64 {
		t.Errorf("expected default icon size to survive, got %d", cfg.Shell.DefaultIconSize)
	}

	// Setters write back to the file that was loaded
	m.SetShowDotfiles(true)
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "showDotfiles: true") {
		t.Errorf("expected YAML to be rewritten, got:\n%s", data)
	}
}

func TestGenerateConfigBacksUp(t *testing.T) {
	withHome(t)

	backup, err := GenerateConfig()
	if err != nil {
		t.Fatalf("GenerateConfig: %v", err)
	}
	if backup != "" {
		t.Errorf("expected no backup on first run, got %s", backup)
	}

	backup, err = GenerateConfig()
	if err != nil {
		t.Fatalf("GenerateConfig: %v", err)
	}
	if backup == "" {
		t.Fatal("expected a backup of the existing config")
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestParseHotkey(t *testing.T) {
	testCases := []struct {
		in   string
		key  key.Name
		mods key.Modifiers
	}{
		{"Ctrl+A", "A", key.ModCtrl},
		{"ctrl+shift+n", "N", key.ModCtrl | key.ModShift},
		{"F5", key.NameF5, 0},
		{"Enter", key.NameReturn, 0},
		{"Escape", key.NameEscape, 0},
		{"Alt+Left", key.NameLeftArrow, key.ModAlt},
		{"Shift+1", "!", key.ModShift},
		{"", "", 0},
	}

	for _, tc := range testCases {
		h := ParseHotkey(tc.in)
		if h.Key != tc.key || h.Modifiers != tc.mods {
			t.Errorf("ParseHotkey(%q) = %q/%v, want %q/%v", tc.in, h.Key, h.Modifiers, tc.key, tc.mods)
		}
	}
}

func TestHotkeyMatches(t *testing.T) {
	h := ParseHotkey("Ctrl+A")
	if !h.Matches(key.Event{Name: "A", Modifiers: key.ModCtrl}) {
		t.Error("expected Ctrl+A to match")
	}
	if h.Matches(key.Event{Name: "A", Modifiers: key.ModCtrl | key.ModShift}) {
		t.Error("extra modifiers must not match")
	}
	if ParseHotkey("Shift+1").String() != "Shift+1" {
		t.Errorf("unexpected display %q", ParseHotkey("Shift+1").String())
	}
}

func TestHotkeyMatcherFilters(t *testing.T) {
	m := NewHotkeyMatcher(HotkeysConfig{SelectAll: "Ctrl+A", Refresh: "F5"})
	if n := len(m.Filters(nil)); n != 2 {
		t.Errorf("expected 2 filters, got %d", n)
	}
}

func TestHotkeyMatcherNextBox(t *testing.T) {
	m := NewHotkeyMatcher(HotkeysConfig{NextBox: "Ctrl+Tab"})
	if !m.NextBox.Matches(key.Event{Name: key.NameTab, Modifiers: key.ModCtrl}) {
		t.Error("expected Ctrl+Tab to match")
	}
	if m.NextBox.Matches(key.Event{Name: key.NameTab}) {
		t.Error("plain Tab should not match")
	}
	if n := len(m.Filters(nil)); n != 1 {
		t.Errorf("expected 1 filter, got %d", n)
	}
	if DefaultHotkeys().NextBox == "" {
		t.Error("expected a default next box hotkey")
	}
}
