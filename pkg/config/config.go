// Package config handles loading and saving qw configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/questwork/config.yaml
//   - Data:    ~/.local/share/questwork/ (exports, wizard presets)
//   - State:   ~/.local/state/questwork/ (view state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/viewport"
	"github.com/vanderheijden86/questwork/pkg/watcher"
)

// Source is a registered quest data file or directory.
type Source struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultView string  `yaml:"default_view,omitempty"` // list, graph, split
	SplitRatio  float64 `yaml:"split_ratio,omitempty"`  // list/canvas split (0.2-0.8)
	Headless    bool    `yaml:"headless,omitempty"`     // compact header mode
}

// LayoutConfig overrides graph layout geometry. Zero fields keep the
// built-in defaults.
type LayoutConfig struct {
	Direction  string  `yaml:"direction,omitempty"` // LR or TB
	NodeWidth  float64 `yaml:"node_width,omitempty"`
	NodeHeight float64 `yaml:"node_height,omitempty"`
	RankGap    float64 `yaml:"rank_gap,omitempty"`
	NodeGap    float64 `yaml:"node_gap,omitempty"`
}

// ViewportConfig tunes pan and highlight behaviour.
type ViewportConfig struct {
	PanMs       int     `yaml:"pan_ms,omitempty"`
	Zoom        float64 `yaml:"zoom,omitempty"`
	HighlightMs int     `yaml:"highlight_ms,omitempty"`
}

// SearchConfig tunes the search input.
type SearchConfig struct {
	DebounceMs int `yaml:"debounce_ms,omitempty"`
}

// WatchConfig controls live reload of quest data files.
type WatchConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// Config is the top-level configuration for qw.
type Config struct {
	Sources   []Source       `yaml:"sources,omitempty"`
	Favorites map[int]string `yaml:"favorites,omitempty"` // number key (1-9) -> trader name
	UI        UIConfig       `yaml:"ui,omitempty"`
	Layout    LayoutConfig   `yaml:"layout,omitempty"`
	Viewport  ViewportConfig `yaml:"viewport,omitempty"`
	Search    SearchConfig   `yaml:"search,omitempty"`
	Watch     WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			DefaultView: "split",
			SplitRatio:  0.35,
		},
		Layout: LayoutConfig{
			Direction: string(layout.LeftToRight),
		},
	}
}

// ConfigDir returns the XDG config directory for qw.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "questwork")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "questwork")
}

// DataDir returns the XDG data directory for qw.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "questwork")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "questwork")
}

// StateDir returns the XDG state directory for qw.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "questwork")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "questwork")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
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

	// Expand ~ in source paths
	for i := range cfg.Sources {
		cfg.Sources[i].Path = expandHome(cfg.Sources[i].Path)
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

// FindSource returns the source with the given name, or nil.
func (c Config) FindSource(name string) *Source {
	for i := range c.Sources {
		if strings.EqualFold(c.Sources[i].Name, name) {
			return &c.Sources[i]
		}
	}
	return nil
}

// FavoriteTrader returns the trader assigned to number key n (1-9), or "".
func (c Config) FavoriteTrader(n int) string {
	return c.Favorites[n]
}

// SetFavorite assigns a trader name to a number key (1-9).
func (c *Config) SetFavorite(n int, trader string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if trader == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = trader
	}
}

// TraderFavoriteNumber returns the favorite number (1-9) for a trader name, or 0 if not favorited.
func (c Config) TraderFavoriteNumber(name string) int {
	for n, tname := range c.Favorites {
		if strings.EqualFold(tname, name) {
			return n
		}
	}
	return 0
}

// LayoutOptions maps the layout section onto engine options. Zero
// fields stay zero and take the engine defaults.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		NodeWidth:  c.Layout.NodeWidth,
		NodeHeight: c.Layout.NodeHeight,
		RankGap:    c.Layout.RankGap,
		NodeGap:    c.Layout.NodeGap,
		Direction:  layout.Direction(strings.ToUpper(c.Layout.Direction)),
	}
}

// ViewportOptions maps the viewport section onto controller options.
func (c Config) ViewportOptions() []viewport.Option {
	var opts []viewport.Option
	if c.Viewport.PanMs > 0 {
		opts = append(opts, viewport.WithPanDuration(time.Duration(c.Viewport.PanMs)*time.Millisecond))
	}
	if c.Viewport.Zoom > 0 {
		opts = append(opts, viewport.WithZoom(c.Viewport.Zoom))
	}
	if c.Viewport.HighlightMs > 0 {
		opts = append(opts, viewport.WithHighlightDuration(time.Duration(c.Viewport.HighlightMs)*time.Millisecond))
	}
	return opts
}

// SearchDebounce returns the configured search debounce duration, or
// the watcher default when unset.
func (c Config) SearchDebounce() time.Duration {
	if c.Search.DebounceMs > 0 {
		return time.Duration(c.Search.DebounceMs) * time.Millisecond
	}
	return watcher.DefaultDebounceDuration
}

// WatchEnabled reports whether live reload is on. Defaults to true.
func (c Config) WatchEnabled() bool {
	if c.Watch.Enabled == nil {
		return true
	}
	return *c.Watch.Enabled
}

// ResolvedPath returns the source path with ~ expanded.
func (s Source) ResolvedPath() string {
	return expandHome(s.Path)
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
