package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all user-configurable settings loaded from config.json or
// config.yaml
type Config struct {
	Shell ShellConfig `json:"shell" yaml:"shell"`
	Box   BoxConfig   `json:"box" yaml:"box"`
	API   APIConfig   `json:"api" yaml:"api"`
	Debug DebugConfig `json:"debug" yaml:"debug"`
}

// ShellConfig controls the icon resolver and drag source defaults
type ShellConfig struct {
	DefaultIconSize uint     `json:"defaultIconSize" yaml:"defaultIconSize"` // 16..256
	AllowedEffects  []string `json:"allowedEffects" yaml:"allowedEffects"`   // "copy", "move", "link"
}

// BoxConfig controls the file box window
type BoxConfig struct {
	DefaultFolder   string        `json:"defaultFolder" yaml:"defaultFolder"`
	IconSize        int           `json:"iconSize" yaml:"iconSize"` // Display size in dp
	ShowDotfiles    bool          `json:"showDotfiles" yaml:"showDotfiles"`
	WatchDebounceMs int           `json:"watchDebounceMs" yaml:"watchDebounceMs"`
	Hotkeys         HotkeysConfig `json:"hotkeys" yaml:"hotkeys"`
}

// HotkeysConfig holds the keyboard shortcuts of the file box window
type HotkeysConfig struct {
	SelectAll      string `json:"selectAll" yaml:"selectAll"`
	ClearSelection string `json:"clearSelection" yaml:"clearSelection"`
	Open           string `json:"open" yaml:"open"`
	Refresh        string `json:"refresh" yaml:"refresh"`
	ToggleHidden   string `json:"toggleHidden" yaml:"toggleHidden"`
	NextBox        string `json:"nextBox" yaml:"nextBox"`
}

// APIConfig points the REST pass-through at its backend
type APIConfig struct {
	BaseURL        string `json:"baseURL" yaml:"baseURL"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// DebugConfig selects debug log categories ("all", "none" or "ICON,DRAG")
type DebugConfig struct {
	Categories string `json:"categories" yaml:"categories"`
}

// WatchDebounce returns the watcher debounce interval
func (b BoxConfig) WatchDebounce() time.Duration {
	if b.WatchDebounceMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(b.WatchDebounceMs) * time.Millisecond
}

// Timeout returns the REST request timeout
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	yaml     bool  // Loaded from config.yaml; saves go back there
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Shell: ShellConfig{
			DefaultIconSize: 64,
			AllowedEffects:  []string{"copy", "move"},
		},
		Box: BoxConfig{
			DefaultFolder:   filepath.Join(home, "Desktop"),
			IconSize:        48,
			ShowDotfiles:    false,
			WatchDebounceMs: 100,
			Hotkeys:         DefaultHotkeys(),
		},
		API: APIConfig{
			BaseURL:        "http://47.100.126.194:5000",
			TimeoutSeconds: 30,
		},
		Debug: DebugConfig{
			Categories: "",
		},
	}
}

// ConfigPath returns the config file path: ~/.config/deskshell/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "deskshell", "config.json")
}

// YAMLPath returns the optional YAML config path next to config.json.
// When present it takes precedence.
func YAMLPath() string {
	return filepath.Join(filepath.Dir(ConfigPath()), "config.yaml")
}

// Load reads the configuration from the config file
// If neither file exists, creates config.json with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = ConfigPath()
	m.yaml = false
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	if data, err := os.ReadFile(YAMLPath()); err == nil {
		m.path = YAMLPath()
		m.yaml = true
		cfg := DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("Config: YAML parse error: %v", err)
			m.parseErr = err
			m.config = DefaultConfig()
			return nil
		}
		log.Printf("Config: loaded from %s", m.path)
		m.config = cfg
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Printf("Config: failed to read %s: %v", YAMLPath(), err)
		return err
	}

	// Try to read existing config
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		// Create default config file
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		log.Printf("Config: default config created successfully")
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Missing keys keep their defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		// Store error for display, use defaults
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}

	log.Printf("Config: loaded from %s", m.path)
	m.config = cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	var (
		data []byte
		err  error
	)
	if m.yaml {
		data, err = yaml.Marshal(m.config)
	} else {
		data, err = json.MarshalIndent(m.config, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		m.path = ConfigPath()
	}
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// Path returns the file the configuration was loaded from
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetShowDotfiles updates the show dotfiles setting
func (m *Manager) SetShowDotfiles(show bool) {
	m.mu.Lock()
	m.config.Box.ShowDotfiles = show
	m.mu.Unlock()
	m.Save()
}

// SetDefaultFolder updates the folder the file box opens when none is given
func (m *Manager) SetDefaultFolder(path string) {
	m.mu.Lock()
	m.config.Box.DefaultFolder = path
	m.mu.Unlock()
	m.Save()
}

// GenerateConfig backs up existing config and creates a fresh default config
// Returns the backup path if a backup was created, or empty string if no existing config
func GenerateConfig() (backupPath string, err error) {
	configPath := ConfigPath()

	// Check if existing config exists
	if _, err := os.Stat(configPath); err == nil {
		// Create backup with timestamp
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".json")

		// Read existing config
		data, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}

		// Write backup
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write fresh default config
	defaultCfg := DefaultConfig()
	data, err := json.MarshalIndent(defaultCfg, "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}

	return backupPath, nil
}
