package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.DefaultView != "issues" {
		t.Errorf("expected default view 'issues', got %q", cfg.UI.DefaultView)
	}
	if cfg.Scan.TimeoutSeconds != 30 {
		t.Errorf("expected scan timeout 30, got %d", cfg.Scan.TimeoutSeconds)
	}
	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.DefaultView != "issues" {
		t.Errorf("expected default config, got view %q", cfg.UI.DefaultView)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sites:
  - name: marketing
    url: https://example.com
  - name: app
    url: https://app.example.com

favorites:
  1: marketing
  2: app

ui:
  default_view: checklist
  show_incomplete: true

scan:
  timeout_seconds: 10
  user_agent: a11ydeck-audit
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(cfg.Sites))
	}
	if cfg.Sites[0].Name != "marketing" {
		t.Errorf("expected site name 'marketing', got %q", cfg.Sites[0].Name)
	}
	if cfg.Sites[1].URL != "https://app.example.com" {
		t.Errorf("expected app url preserved, got %q", cfg.Sites[1].URL)
	}

	if cfg.Favorites[1] != "marketing" {
		t.Errorf("expected favorite 1 = 'marketing', got %q", cfg.Favorites[1])
	}
	if cfg.Favorites[2] != "app" {
		t.Errorf("expected favorite 2 = 'app', got %q", cfg.Favorites[2])
	}

	if cfg.UI.DefaultView != "checklist" {
		t.Errorf("expected default_view 'checklist', got %q", cfg.UI.DefaultView)
	}
	if !cfg.UI.ShowIncomplete {
		t.Error("expected show_incomplete true")
	}
	if cfg.Scan.TimeoutSeconds != 10 {
		t.Errorf("expected timeout_seconds 10, got %d", cfg.Scan.TimeoutSeconds)
	}
	if cfg.Scan.UserAgent != "a11ydeck-audit" {
		t.Errorf("expected user_agent 'a11ydeck-audit', got %q", cfg.Scan.UserAgent)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFrom_ZeroTimeoutFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
scan:
  timeout_seconds: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scan.TimeoutSeconds != 30 {
		t.Errorf("expected timeout fallback 30, got %d", cfg.Scan.TimeoutSeconds)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Config{
		Sites: []Site{
			{Name: "site1", URL: "https://one.test"},
			{Name: "site2", URL: "https://two.test"},
		},
		Favorites: map[int]string{
			1: "site1",
			3: "site2",
		},
		UI: UIConfig{
			DefaultView: "checklist",
			Theme:       "light",
		},
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if len(loaded.Sites) != 2 {
		t.Errorf("expected 2 sites, got %d", len(loaded.Sites))
	}
	if loaded.Sites[0].Name != "site1" {
		t.Errorf("expected 'site1', got %q", loaded.Sites[0].Name)
	}
	if loaded.Favorites[1] != "site1" {
		t.Errorf("expected favorite 1 = 'site1', got %q", loaded.Favorites[1])
	}
	if loaded.Favorites[3] != "site2" {
		t.Errorf("expected favorite 3 = 'site2', got %q", loaded.Favorites[3])
	}
	if loaded.UI.DefaultView != "checklist" {
		t.Errorf("expected 'checklist', got %q", loaded.UI.DefaultView)
	}
}

func TestFindSite(t *testing.T) {
	cfg := Config{
		Sites: []Site{
			{Name: "alpha", URL: "https://a.test"},
			{Name: "Beta", URL: "https://b.test"},
		},
	}

	s := cfg.FindSite("alpha")
	if s == nil || s.Name != "alpha" {
		t.Error("expected to find 'alpha'")
	}

	// Case-insensitive
	s = cfg.FindSite("BETA")
	if s == nil || s.Name != "Beta" {
		t.Error("expected to find 'Beta' case-insensitively")
	}

	s = cfg.FindSite("nonexistent")
	if s != nil {
		t.Error("expected nil for nonexistent site")
	}
}

func TestFavoriteSite(t *testing.T) {
	cfg := Config{
		Sites: []Site{
			{Name: "site1", URL: "https://one.test"},
		},
		Favorites: map[int]string{
			1: "site1",
		},
	}

	s := cfg.FavoriteSite(1)
	if s == nil || s.Name != "site1" {
		t.Error("expected favorite 1 to return site1")
	}

	s = cfg.FavoriteSite(5)
	if s != nil {
		t.Error("expected nil for unset favorite")
	}
}

func TestSetFavorite(t *testing.T) {
	cfg := Config{Favorites: make(map[int]string)}

	cfg.SetFavorite(1, "mysite")
	if cfg.Favorites[1] != "mysite" {
		t.Error("expected favorite 1 set to 'mysite'")
	}

	// Clear favorite
	cfg.SetFavorite(1, "")
	if _, ok := cfg.Favorites[1]; ok {
		t.Error("expected favorite 1 to be cleared")
	}
}

func TestDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := DefaultConfig()
	expected := filepath.Join(dir, "a11ydeck", "a11ydeck.db")
	if got := cfg.DatabaseFile(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	cfg.DatabasePath = "/custom/audit.db"
	if got := cfg.DatabaseFile(); got != "/custom/audit.db" {
		t.Errorf("expected override respected, got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "a11ydeck")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "a11ydeck")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "a11ydeck")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestLoadFrom_EmptyFavorites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sites:
  - name: solo
    url: https://solo.test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized even when empty in config")
	}
}

func TestExperimentalConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
experimental:
  bridge_server: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Experimental.BridgeServer == nil {
		t.Fatal("expected bridge_server to be set")
	}
	if !*cfg.Experimental.BridgeServer {
		t.Error("expected bridge_server to be true")
	}
}
