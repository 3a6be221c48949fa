// Package config handles loading and saving a11ydeck configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/a11ydeck/config.yaml
//   - Data:    ~/.local/share/a11ydeck/ (scan history database, exports)
//   - State:   ~/.local/state/a11ydeck/ (session files)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site represents a registered page in the config.
type Site struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// UIConfig holds panel preference settings.
type UIConfig struct {
	DefaultView    string `yaml:"default_view,omitempty"`    // issues, checklist
	ShowIncomplete bool   `yaml:"show_incomplete,omitempty"` // list needs-review findings
	Theme          string `yaml:"theme,omitempty"`           // glamour style for issue detail
}

// ScanConfig controls how pages are fetched and scanned.
type ScanConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Page scan deadline (default 30)
	UserAgent      string `yaml:"user_agent,omitempty"`      // Override for page fetches
}

// ExperimentalConfig holds experimental feature flags.
type ExperimentalConfig struct {
	BridgeServer *bool `yaml:"bridge_server,omitempty"`
}

// Config is the top-level configuration for a11ydeck.
type Config struct {
	Sites        []Site             `yaml:"sites,omitempty"`
	Favorites    map[int]string     `yaml:"favorites,omitempty"` // Number key (1-9) -> site name
	UI           UIConfig           `yaml:"ui,omitempty"`
	Scan         ScanConfig         `yaml:"scan,omitempty"`
	DatabasePath string             `yaml:"database_path,omitempty"` // Overrides the XDG data location
	Experimental ExperimentalConfig `yaml:"experimental,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			DefaultView: "issues",
			Theme:       "dark",
		},
		Scan: ScanConfig{
			TimeoutSeconds: 30,
		},
	}
}

// ConfigDir returns the XDG config directory for a11ydeck.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "a11ydeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "a11ydeck")
}

// DataDir returns the XDG data directory for a11ydeck.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "a11ydeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "a11ydeck")
}

// StateDir returns the XDG state directory for a11ydeck.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "a11ydeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "a11ydeck")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DatabaseFile resolves the scan history database location: the configured
// override when set, otherwise the XDG data directory.
func (c Config) DatabaseFile() string {
	if c.DatabasePath != "" {
		return expandHome(c.DatabasePath)
	}
	dir := DataDir()
	if dir == "" {
		return "a11ydeck.db"
	}
	return filepath.Join(dir, "a11ydeck.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Ensure favorites map is initialized
	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}
	if cfg.Scan.TimeoutSeconds <= 0 {
		cfg.Scan.TimeoutSeconds = 30
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindSite returns the site with the given name, or nil.
func (c Config) FindSite(name string) *Site {
	for i := range c.Sites {
		if strings.EqualFold(c.Sites[i].Name, name) {
			return &c.Sites[i]
		}
	}
	return nil
}

// FavoriteSite returns the site assigned to number key n (1-9), or nil.
func (c Config) FavoriteSite(n int) *Site {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindSite(name)
}

// SetFavorite assigns a site name to a number key (1-9).
func (c *Config) SetFavorite(n int, siteName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if siteName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = siteName
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
