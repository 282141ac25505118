package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScenario_Valid(t *testing.T) {
	s := DefaultScenario()
	require.NoError(t, s.Validate())

	assert.Len(t, s.Plants, 5)
	assert.Len(t, s.Controllable(), 3)
	assert.Len(t, s.Renewables(), 2)
	assert.Equal(t, 12, s.Horizon)
	assert.Equal(t, 24, s.EpisodeLength)
	assert.InDelta(t, 400, s.Consumers[0].BaseLoad, 0.001)
}

func TestDefaultScenario_NuclearParameters(t *testing.T) {
	var nuclear PlantSpec
	for _, p := range DefaultScenario().Plants {
		if p.Key == "nuclear" {
			nuclear = p
		}
	}
	assert.Equal(t, CategoryNuclear, nuclear.Category)
	assert.InDelta(t, 150, nuclear.MinOutput, 0.001)
	assert.InDelta(t, 300, nuclear.MaxOutput, 0.001)
	assert.InDelta(t, 20, nuclear.RampRate, 0.001)
}

func TestScenario_WeatherFor(t *testing.T) {
	s := DefaultScenario()

	w, ok := s.WeatherFor(VariableWind)
	require.True(t, ok)
	assert.InDelta(t, 0.25, w.Volatility, 0.001)
	assert.Len(t, w.Profile, HoursPerDay)

	_, ok = s.WeatherFor(Variable("rain"))
	assert.False(t, ok)
}

func TestScenario_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scenario)
		msg    string
	}{
		{"no plants", func(s *Scenario) { s.Plants = nil }, "no plants"},
		{"zero horizon", func(s *Scenario) { s.Horizon = 0 }, "horizon"},
		{"zero episode", func(s *Scenario) { s.EpisodeLength = 0 }, "episode length"},
		{"duplicate key", func(s *Scenario) { s.Plants[1].Key = "gas" }, "duplicate"},
		{"min above max", func(s *Scenario) { s.Plants[2].MinOutput = 400 }, "min <= max"},
		{"zero ramp", func(s *Scenario) { s.Plants[0].RampRate = 0 }, "ramp"},
		{"unknown source", func(s *Scenario) { s.Plants[3].Source = VariableDemand }, "source"},
		{"unknown role", func(s *Scenario) { s.Plants[0].Role = "hydro" }, "role"},
		{"controllable after renewable", func(s *Scenario) {
			s.Plants[2], s.Plants[3] = s.Plants[3], s.Plants[2]
		}, "after a renewable"},
		{"short profile", func(s *Scenario) { s.Weather[0].Profile = []float64{1} }, "profile"},
		{"missing weather", func(s *Scenario) { s.Weather = s.Weather[:2] }, "missing wind"},
		{"negative volatility", func(s *Scenario) { s.Weather[1].Volatility = -1 }, "volatility"},
		{"no consumers", func(s *Scenario) { s.Consumers = nil }, "no consumers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScenario()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidScenario)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCategoryCatalog(t *testing.T) {
	for _, c := range []Category{CategoryGas, CategoryCoal, CategoryNuclear, CategorySolar, CategoryWind} {
		info, ok := CategoryCatalog[c]
		assert.True(t, ok, "missing catalog entry for %s", c)
		assert.NotEmpty(t, info.Name)
	}
}
