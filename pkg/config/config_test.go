package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/watcher"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.DefaultView != "split" {
		t.Errorf("expected default view 'split', got %q", cfg.UI.DefaultView)
	}
	if cfg.UI.SplitRatio != 0.35 {
		t.Errorf("expected split ratio 0.35, got %f", cfg.UI.SplitRatio)
	}
	if cfg.Layout.Direction != "LR" {
		t.Errorf("expected direction LR, got %q", cfg.Layout.Direction)
	}
	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized")
	}
	if !cfg.WatchEnabled() {
		t.Error("expected live reload on by default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.DefaultView != "split" {
		t.Errorf("expected default config, got view %q", cfg.UI.DefaultView)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sources:
  - name: live
    path: ~/quests/tasks.jsonl
  - name: fixture
    path: /data/tasks.json

favorites:
  1: Prapor
  2: Skier

ui:
  default_view: graph
  split_ratio: 0.5

layout:
  direction: tb
  node_width: 320

viewport:
  pan_ms: 200
  zoom: 2.0
  highlight_ms: 1000

search:
  debounce_ms: 100

watch:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "live" {
		t.Errorf("expected source name 'live', got %q", cfg.Sources[0].Name)
	}
	// Path should have ~ expanded
	home, _ := os.UserHomeDir()
	expectedPath := filepath.Join(home, "quests/tasks.jsonl")
	if cfg.Sources[0].Path != expectedPath {
		t.Errorf("expected expanded path %q, got %q", expectedPath, cfg.Sources[0].Path)
	}
	if cfg.Sources[1].Path != "/data/tasks.json" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Sources[1].Path)
	}

	if cfg.Favorites[1] != "Prapor" {
		t.Errorf("expected favorite 1 = 'Prapor', got %q", cfg.Favorites[1])
	}
	if cfg.UI.DefaultView != "graph" {
		t.Errorf("expected default_view 'graph', got %q", cfg.UI.DefaultView)
	}

	opts := cfg.LayoutOptions()
	if opts.Direction != layout.TopToBottom {
		t.Errorf("expected TB direction, got %q", opts.Direction)
	}
	if opts.NodeWidth != 320 {
		t.Errorf("expected node width 320, got %f", opts.NodeWidth)
	}

	if got := len(cfg.ViewportOptions()); got != 3 {
		t.Errorf("expected 3 viewport options, got %d", got)
	}
	if cfg.SearchDebounce() != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %v", cfg.SearchDebounce())
	}
	if cfg.WatchEnabled() {
		t.Error("expected live reload disabled")
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

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Config{
		Sources: []Source{
			{Name: "live", Path: "/data/tasks.jsonl"},
			{Name: "backup", Path: "/data/backup.json"},
		},
		Favorites: map[int]string{
			1: "Prapor",
			3: "Therapist",
		},
		UI: UIConfig{
			DefaultView: "list",
			SplitRatio:  0.6,
		},
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if len(loaded.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(loaded.Sources))
	}
	if loaded.Sources[0].Name != "live" {
		t.Errorf("expected 'live', got %q", loaded.Sources[0].Name)
	}
	if loaded.Favorites[1] != "Prapor" {
		t.Errorf("expected favorite 1 = 'Prapor', got %q", loaded.Favorites[1])
	}
	if loaded.Favorites[3] != "Therapist" {
		t.Errorf("expected favorite 3 = 'Therapist', got %q", loaded.Favorites[3])
	}
	if loaded.UI.DefaultView != "list" {
		t.Errorf("expected 'list', got %q", loaded.UI.DefaultView)
	}
}

func TestFindSource(t *testing.T) {
	cfg := Config{
		Sources: []Source{
			{Name: "alpha", Path: "/a"},
			{Name: "Beta", Path: "/b"},
		},
	}

	s := cfg.FindSource("alpha")
	if s == nil || s.Name != "alpha" {
		t.Error("expected to find 'alpha'")
	}

	// Case-insensitive
	s = cfg.FindSource("BETA")
	if s == nil || s.Name != "Beta" {
		t.Error("expected to find 'Beta' case-insensitively")
	}

	s = cfg.FindSource("nonexistent")
	if s != nil {
		t.Error("expected nil for nonexistent source")
	}
}

func TestSetFavorite(t *testing.T) {
	cfg := Config{Favorites: make(map[int]string)}

	cfg.SetFavorite(1, "Skier")
	if cfg.Favorites[1] != "Skier" {
		t.Error("expected favorite 1 set to 'Skier'")
	}
	if cfg.FavoriteTrader(1) != "Skier" {
		t.Error("expected FavoriteTrader(1) = 'Skier'")
	}

	// Clear favorite
	cfg.SetFavorite(1, "")
	if _, ok := cfg.Favorites[1]; ok {
		t.Error("expected favorite 1 to be cleared")
	}
}

func TestTraderFavoriteNumber(t *testing.T) {
	cfg := Config{
		Favorites: map[int]string{
			2: "Skier",
			5: "Mechanic",
		},
	}

	if n := cfg.TraderFavoriteNumber("Skier"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if n := cfg.TraderFavoriteNumber("mechanic"); n != 5 {
		t.Errorf("expected 5 case-insensitively, got %d", n)
	}
	if n := cfg.TraderFavoriteNumber("unknown"); n != 0 {
		t.Errorf("expected 0 for unknown, got %d", n)
	}
}

func TestSearchDebounceDefault(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SearchDebounce() != watcher.DefaultDebounceDuration {
		t.Errorf("expected watcher default, got %v", cfg.SearchDebounce())
	}
}

func TestLayoutOptionsZeroPassthrough(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.LayoutOptions()
	if opts.NodeWidth != 0 || opts.NodeHeight != 0 {
		t.Error("unset geometry should stay zero for the engine defaults")
	}
	if opts.Direction != layout.LeftToRight {
		t.Errorf("expected LR, got %q", opts.Direction)
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
	expected := filepath.Join(dir, "questwork")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "questwork")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "questwork")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestLoadFrom_EmptyFavorites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
sources:
  - name: solo
    path: /solo
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
