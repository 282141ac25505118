package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_simulator/internal/dispatch"
	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
)

func TestNewController(t *testing.T) {
	s := model.DefaultScenario()

	tests := []struct {
		name string
		want string
	}{
		{"merit-order", "merit-order"},
		{"idle", "constant"},
		{"full", "constant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newController(tt.name, s, 0.05)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}

	full, err := newController("full", s, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, full.Act(nil, env.Info{}))

	_, err = newController("random", s, 0)
	assert.Error(t, err)
}

func TestPlay_RunsWholeEpisode(t *testing.T) {
	s := model.DefaultScenario()
	e, err := env.New(s, nil)
	require.NoError(t, err)
	obs, info, err := e.Reset(4)
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := play(e, dispatch.NewMeritOrder(s, 0.05), obs, info, &out)
	require.NoError(t, err)

	assert.Equal(t, s.EpisodeLength, summary.Turns)
	assert.True(t, e.Done())
	// header, separator and one row per turn
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2+s.EpisodeLength)
}

func TestPrintTable(t *testing.T) {
	s := model.DefaultScenario()
	e, err := env.New(s, nil)
	require.NoError(t, err)

	var results []result
	for seed := uint64(1); seed <= 2; seed++ {
		obs, info, err := e.Reset(seed)
		require.NoError(t, err)
		summary, err := play(e, dispatch.Constant{Action: []float64{0, 0, 0}}, obs, info, io.Discard)
		require.NoError(t, err)
		results = append(results, result{episode: e.Episode(), summary: summary})
	}

	var out bytes.Buffer
	printTable(&out, s, "constant", results)
	text := out.String()
	assert.Contains(t, text, "Scenario: default, controller: constant, 24 turns per episode")
	assert.Contains(t, text, "Mean score:")

	var empty bytes.Buffer
	printTable(&empty, s, "constant", nil)
	assert.Empty(t, empty.String())
}

func TestFormatAction(t *testing.T) {
	assert.Equal(t, "[0.33, 1, 0]", formatAction([]float64{1.0 / 3, 1, 0}))
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestRun_WritesTableAndClosesSessionLog(t *testing.T) {
	dir := t.TempDir()
	opts := options{seed: 3, episodes: 2, controller: "merit-order", reserve: 0.05, logDir: dir}

	var out, progress bytes.Buffer
	require.NoError(t, run(model.DefaultScenario(), opts, &out, &progress, testLogger()))

	assert.Contains(t, out.String(), "controller: merit-order")
	assert.Contains(t, progress.String(), "episode 2 (seed 4) done")

	files, err := filepath.Glob(filepath.Join(dir, "autoplay_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+2*24)
}

func TestRun_ReturnsErrors(t *testing.T) {
	var out bytes.Buffer
	err := run(model.DefaultScenario(), options{episodes: 1, controller: "random"}, &out, io.Discard, testLogger())
	assert.ErrorContains(t, err, "unknown controller")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	err = run(model.DefaultScenario(), options{episodes: 1, controller: "idle", logDir: filepath.Join(blocker, "sub")}, &out, io.Discard, testLogger())
	assert.ErrorContains(t, err, "session log")
}
