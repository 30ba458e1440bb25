// Package config holds the YAML configuration for the simulation binary.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/talgya/serenissima/internal/detour"
)

// Config is the whole simulation configuration.
type Config struct {
	Data     Data     `yaml:"data"`
	Sim      Sim      `yaml:"sim"`
	Decision Decision `yaml:"decision"`
	Detour   Detour   `yaml:"detour"`
	API      API      `yaml:"api"`
	Journal  Journal  `yaml:"journal"`
}

// Data points at the static input files.
type Data struct {
	StreetLayers []string `yaml:"street_layers"` // GeoJSON line layers, concatenated into one graph
	POIs         string   `yaml:"pois"`
	Personas     string   `yaml:"personas"`
}

// Sim controls the clock and the tick loop.
type Sim struct {
	Speed          float64 `yaml:"speed"`            // simulated minutes per real second
	TickIntervalMs int     `yaml:"tick_interval_ms"` // movement tick; default 50
	StartClock     string  `yaml:"start_clock"`      // "HH:MM", default "06:00"
	MaxAgents      int     `yaml:"max_agents"`       // 0 = all personas
}

// Decision configures the external decision service.
type Decision struct {
	URL            string `yaml:"url"` // empty disables detours
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxPerMinute   int    `yaml:"max_per_minute"`
}

// Detour carries the evaluator tuning. Zero values use the defaults.
type Detour struct {
	CheckpointMinMinutes float64 `yaml:"checkpoint_min_minutes"`
	CheckpointMaxMinutes float64 `yaml:"checkpoint_max_minutes"`
	CooldownMinutes      float64 `yaml:"cooldown_minutes"`
	DailyCap             int     `yaml:"daily_cap"`
	MinSlackMinutes      float64 `yaml:"min_slack_minutes"`
	SearchRadiusMinutes  float64 `yaml:"search_radius_minutes"`
	MaxOptions           int     `yaml:"max_options"`
}

// API configures the observation HTTP server.
type API struct {
	Port int `yaml:"port"` // 0 disables the API
}

// Journal configures the SQLite journal.
type Journal struct {
	Path            string  `yaml:"path"` // empty disables the journal
	SnapshotMinutes float64 `yaml:"snapshot_minutes"`
}

// Load reads and strictly parses the YAML file, then applies defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Sim.Speed <= 0 {
		c.Sim.Speed = 1
	}
	if c.Sim.TickIntervalMs <= 0 {
		c.Sim.TickIntervalMs = 50
	}
	if c.Sim.StartClock == "" {
		c.Sim.StartClock = "06:00"
	}
	if c.Decision.TimeoutSeconds <= 0 {
		c.Decision.TimeoutSeconds = 10
	}
	if c.Decision.MaxPerMinute <= 0 {
		c.Decision.MaxPerMinute = 60
	}
	if c.Journal.SnapshotMinutes <= 0 {
		c.Journal.SnapshotMinutes = 60
	}
}

// DetourConfig converts the YAML tuning into the evaluator's config.
func (c *Config) DetourConfig() detour.Config {
	return detour.Config{
		CheckpointMinMinutes: c.Detour.CheckpointMinMinutes,
		CheckpointMaxMinutes: c.Detour.CheckpointMaxMinutes,
		CooldownMinutes:      c.Detour.CooldownMinutes,
		DailyCap:             c.Detour.DailyCap,
		MinSlackMinutes:      c.Detour.MinSlackMinutes,
		SearchRadiusMinutes:  c.Detour.SearchRadiusMinutes,
		MaxOptions:           c.Detour.MaxOptions,
	}
}
