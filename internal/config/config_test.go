package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  street_layers: [streets.geojson]
  personas: personas.json
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"streets.geojson"}, cfg.Data.StreetLayers)
	assert.Equal(t, 1.0, cfg.Sim.Speed)
	assert.Equal(t, 50, cfg.Sim.TickIntervalMs)
	assert.Equal(t, "06:00", cfg.Sim.StartClock)
	assert.Equal(t, 10, cfg.Decision.TimeoutSeconds)
	assert.Equal(t, 60, cfg.Decision.MaxPerMinute)
	assert.Equal(t, 60.0, cfg.Journal.SnapshotMinutes)
	assert.Empty(t, cfg.Decision.URL, "no URL means detours stay disabled")
	assert.Zero(t, cfg.API.Port)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  street_layers: [streets.geojson, ferries.geojson]
  pois: pois.geojson
  personas: personas.json
sim:
  speed: 60
  tick_interval_ms: 100
  start_clock: "05:30"
  max_agents: 25
decision:
  url: http://localhost:8100
  timeout_seconds: 5
  max_per_minute: 30
detour:
  cooldown_minutes: 45
  daily_cap: 3
api:
  port: 8080
journal:
  path: journal.db
  snapshot_minutes: 30
`))
	require.NoError(t, err)

	assert.Len(t, cfg.Data.StreetLayers, 2)
	assert.Equal(t, 60.0, cfg.Sim.Speed)
	assert.Equal(t, 25, cfg.Sim.MaxAgents)
	assert.Equal(t, "http://localhost:8100", cfg.Decision.URL)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "journal.db", cfg.Journal.Path)

	dc := cfg.DetourConfig()
	assert.Equal(t, 45.0, dc.CooldownMinutes)
	assert.Equal(t, 3, dc.DailyCap)
	assert.Zero(t, dc.MinSlackMinutes, "unset knobs pass through as zero for the evaluator's defaults")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `
sim:
  speeed: 60
`))
	assert.Error(t, err, "strict parsing catches typos")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
