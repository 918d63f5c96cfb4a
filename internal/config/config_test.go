package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LLM_PROVIDER", "TICK_RATE", "DAY_LENGTH", "SEED", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, 3*time.Minute, cfg.DayLength)
	assert.Equal(t, 30*time.Second, cfg.ThoughtInterval)
	assert.NotZero(t, cfg.Seed)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://town.example , ,http://localhost:8000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://town.example", "http://localhost:8000"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TICK_RATE", "30")
	t.Setenv("DAY_LENGTH", "a while")
	_, err = Load()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

func TestLoadTown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "town.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
world:
  width: 400
  height: 300
buildings:
  - name: Bakery
    x: 50
    y: 60
residents:
  - id: mo
    name: Mo
    mood: sleepy
    personality: baker
    home: {x: 10, y: 20}
tuning:
  arrival_threshold: 5
  pair_cooldown: 10s
`), 0o644))

	tw, err := LoadTown(path)
	require.NoError(t, err)
	assert.Equal(t, 400.0, tw.Bounds.Width)
	require.Len(t, tw.Buildings, 1)
	assert.Equal(t, "Bakery", tw.Buildings[0].Name)
	require.Len(t, tw.Residents, 1)
	assert.Equal(t, 20.0, tw.Residents[0].Home.Y)
	assert.Equal(t, 5.0, tw.Tuning.ArrivalThreshold)
	assert.Equal(t, 10*time.Second, tw.Tuning.PairCooldown)
	assert.Equal(t, 80.0, tw.Tuning.BaseSpeed, "unset tuning keeps defaults")
}

func TestLoadTown_FallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tuning:\n  base_speed: 50\n"), 0o644))

	tw, err := LoadTown(path)
	require.NoError(t, err)
	assert.Len(t, tw.Buildings, 5)
	assert.Len(t, tw.Residents, 3)
	assert.Equal(t, 50.0, tw.Tuning.BaseSpeed)
}

func TestTown_Validate(t *testing.T) {
	tw := DefaultTown()
	require.NoError(t, tw.Validate())

	tw.Residents = append(tw.Residents, tw.Residents[0])
	assert.ErrorContains(t, tw.Validate(), "duplicate")

	tw = DefaultTown()
	tw.Residents[0].ID = "player"
	assert.ErrorContains(t, tw.Validate(), "reserved")

	tw = DefaultTown()
	tw.Residents[0].Home.X = 5000
	assert.ErrorContains(t, tw.Validate(), "outside")
}

func TestLoadTown_MissingFile(t *testing.T) {
	_, err := LoadTown(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
