package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"grid_simulator/internal/ingest"
	"grid_simulator/internal/model"
)

// LoadScenario reads a scenario file (YAML, JSON or TOML). Plants are
// required; other sections fall back to the default scenario.
func LoadScenario(path string) (model.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return model.Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}

	var s model.Scenario
	if err := v.Unmarshal(&s); err != nil {
		return model.Scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}

	def := model.DefaultScenario()
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(s.Consumers) == 0 {
		s.Consumers = def.Consumers
	}
	if len(s.Weather) == 0 {
		s.Weather = def.Weather
	}
	if s.Horizon == 0 {
		s.Horizon = def.Horizon
	}
	if s.EpisodeLength == 0 {
		s.EpisodeLength = def.EpisodeLength
	}
	if s.Reward == (model.RewardWeights{}) {
		s.Reward = def.Reward
	}

	if err := s.Validate(); err != nil {
		return model.Scenario{}, err
	}
	return s, nil
}

// BuildScenario resolves the scenario the configuration asks for: the
// scenario file or the default, with weather profiles from the CSV when set.
func BuildScenario(cfg ScenarioConfig) (model.Scenario, error) {
	s := model.DefaultScenario()
	if cfg.File != "" {
		var err error
		if s, err = LoadScenario(cfg.File); err != nil {
			return model.Scenario{}, err
		}
	}

	if cfg.ProfilesCSV != "" {
		weather, err := ingest.LoadWeatherFile(cfg.ProfilesCSV, s)
		if err != nil {
			return model.Scenario{}, fmt.Errorf("loading profiles: %w", err)
		}
		s.Weather = weather
		if err := s.Validate(); err != nil {
			return model.Scenario{}, err
		}
	}
	return s, nil
}
