package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_simulator/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.SessionLog.Enabled)
	assert.Equal(t, "logs", cfg.SessionLog.Dir)
	assert.Equal(t, "gridsim", cfg.MQTT.Topic)
	assert.Empty(t, cfg.MQTT.Broker)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
log:
  level: debug
  format: json
sessionlog:
  enabled: true
  dir: /tmp/sessions
mqtt:
  broker: tcp://localhost:1883
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.SessionLog.Enabled)
	assert.Equal(t, "/tmp/sessions", cfg.SessionLog.Dir)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "grid-simulator", cfg.MQTT.ClientID)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRIDSIM_SERVER_ADDR", ":7000")
	t.Setenv("GRIDSIM_SCENARIO_PROFILES_CSV", "profiles.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "profiles.csv", cfg.Scenario.ProfilesCSV)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

const smallGrid = `
plants:
  - key: coal
    name: Coal Plant
    category: coal
    role: controllable
    max_output: 200
    min_output: 50
    cost_per_mw: 40
    emissions_per_mw: 1.1
    ramp_rate: 40
  - key: wind
    name: Wind Farm
    category: wind
    role: renewable
    max_output: 120
    ramp_rate: 999
    source: wind
horizon: 6
`

func TestLoadScenario_FillsDefaults(t *testing.T) {
	path := writeFile(t, "small.yaml", smallGrid)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "small", s.Name)
	require.Len(t, s.Plants, 2)
	assert.Equal(t, model.CategoryCoal, s.Plants[0].Category)
	assert.Equal(t, model.RoleControllable, s.Plants[0].Role)
	assert.InDelta(t, 50, s.Plants[0].MinOutput, 0)
	assert.Equal(t, model.VariableWind, s.Plants[1].Source)

	assert.Equal(t, 6, s.Horizon)
	assert.Equal(t, 24, s.EpisodeLength)
	assert.Equal(t, model.DefaultScenario().Reward, s.Reward)
	assert.Len(t, s.Weather, 3)
	assert.Len(t, s.Consumers, 1)
}

func TestLoadScenario_Invalid(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
plants:
  - key: gas
    role: controllable
    max_output: 100
    ramp_rate: 0
`)
	_, err := LoadScenario(path)
	assert.ErrorIs(t, err, model.ErrInvalidScenario)
}

func TestBuildScenario(t *testing.T) {
	s, err := BuildScenario(ScenarioConfig{})
	require.NoError(t, err)
	assert.Equal(t, "default", s.Name)

	var b strings.Builder
	b.WriteString("hour,solar\n")
	for h := 0; h < 24; h++ {
		v := 0.0
		if h == 12 {
			v = 75
		}
		fmt.Fprintf(&b, "%d,%g\n", h, v)
	}
	csv := b.String()
	s, err = BuildScenario(ScenarioConfig{ProfilesCSV: writeFile(t, "p.csv", csv)})
	require.NoError(t, err)
	solar, ok := s.WeatherFor(model.VariableSolar)
	require.True(t, ok)
	assert.InDelta(t, 0.5, solar.Profile[12], 1e-9) // 75 of 150 MW
	assert.InDelta(t, 0, solar.Profile[11], 0)

	_, err = BuildScenario(ScenarioConfig{ProfilesCSV: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}
