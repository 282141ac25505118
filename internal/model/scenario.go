package model

import (
	"errors"
	"fmt"
	"time"
)

// HoursPerDay is the length of every base weather profile.
const HoursPerDay = 24

// RewardWeights scale each penalty term of the per-turn reward.
type RewardWeights struct {
	Cost      float64 `mapstructure:"cost" json:"cost"`
	Emissions float64 `mapstructure:"emissions" json:"emissions"`
	Waste     float64 `mapstructure:"waste" json:"waste"`
	Unmet     float64 `mapstructure:"unmet" json:"unmet"`
}

// Scenario is the static composition of one simulated day.
// Plants are ordered: controllable plants first, then renewables.
type Scenario struct {
	Name          string         `mapstructure:"name" json:"name"`
	Plants        []PlantSpec    `mapstructure:"plants" json:"plants"`
	Consumers     []ConsumerSpec `mapstructure:"consumers" json:"consumers"`
	Weather       []WeatherSpec  `mapstructure:"weather" json:"weather"`
	Horizon       int            `mapstructure:"horizon" json:"horizon"`
	EpisodeLength int            `mapstructure:"episode_length" json:"episode_length"`
	Reward        RewardWeights  `mapstructure:"reward" json:"reward"`
}

var ErrInvalidScenario = errors.New("invalid scenario")

// DefaultScenario returns the reference grid: gas, coal and nuclear under
// operator control, a solar and a wind farm, and one city.
func DefaultScenario() Scenario {
	return Scenario{
		Name: "default",
		Plants: []PlantSpec{
			{Key: "gas", Name: "Gas Plant", Category: CategoryGas, Role: RoleControllable,
				MaxOutput: 100, MinOutput: 0, CostPerMW: 150, EmissionsPerMW: 0.8, RampRate: 100},
			{Key: "coal", Name: "Coal Plant", Category: CategoryCoal, Role: RoleControllable,
				MaxOutput: 150, MinOutput: 0, CostPerMW: 50, EmissionsPerMW: 1.2, RampRate: 50},
			{Key: "nuclear", Name: "Nuclear Plant", Category: CategoryNuclear, Role: RoleControllable,
				MaxOutput: 300, MinOutput: 150, CostPerMW: 20, EmissionsPerMW: 0.01, RampRate: 20},
			// Renewables follow the weather instantly.
			{Key: "solar", Name: "Solar Farm", Category: CategorySolar, Role: RoleRenewable,
				MaxOutput: 150, RampRate: 999, Source: VariableSolar},
			{Key: "wind", Name: "Wind Farm", Category: CategoryWind, Role: RoleRenewable,
				MaxOutput: 100, RampRate: 999, Source: VariableWind},
		},
		Consumers: []ConsumerSpec{
			{Key: "city", Name: "Main City", BaseLoad: 400},
		},
		Weather: []WeatherSpec{
			{Variable: VariableDemand, Volatility: 0.05, Profile: []float64{
				0.6, 0.55, 0.5, 0.5, 0.55, 0.65, 0.8, 0.9, 0.95, 0.9, 0.85, 0.85,
				0.85, 0.85, 0.85, 0.85, 0.9, 0.95, 1.0, 0.95, 0.9, 0.8, 0.7, 0.65,
			}},
			{Variable: VariableSolar, Volatility: 0.15, Profile: []float64{
				0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.1, 0.3, 0.6, 0.8, 0.9, 1.0,
				1.0, 0.9, 0.8, 0.6, 0.3, 0.1, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
			}},
			{Variable: VariableWind, Volatility: 0.25, Profile: flatProfile(0.5)},
		},
		Horizon:       12,
		EpisodeLength: 24,
		Reward: RewardWeights{
			Cost:      0.1,
			Emissions: 0.1,
			Waste:     0.5,
			Unmet:     100,
		},
	}
}

func flatProfile(v float64) []float64 {
	p := make([]float64, HoursPerDay)
	for i := range p {
		p[i] = v
	}
	return p
}

// Validate checks the structural constraints the engine relies on.
func (s Scenario) Validate() error {
	if len(s.Plants) == 0 {
		return fmt.Errorf("%w: no plants", ErrInvalidScenario)
	}
	if s.Horizon < 1 {
		return fmt.Errorf("%w: horizon %d < 1", ErrInvalidScenario, s.Horizon)
	}
	if s.EpisodeLength < 1 {
		return fmt.Errorf("%w: episode length %d < 1", ErrInvalidScenario, s.EpisodeLength)
	}

	weather := make(map[Variable]bool, len(s.Weather))
	for _, w := range s.Weather {
		if len(w.Profile) != HoursPerDay {
			return fmt.Errorf("%w: %s profile has %d values, want %d", ErrInvalidScenario, w.Variable, len(w.Profile), HoursPerDay)
		}
		if w.Volatility < 0 {
			return fmt.Errorf("%w: %s volatility is negative", ErrInvalidScenario, w.Variable)
		}
		weather[w.Variable] = true
	}
	for _, v := range Variables {
		if !weather[v] {
			return fmt.Errorf("%w: missing %s weather profile", ErrInvalidScenario, v)
		}
	}

	keys := make(map[string]bool, len(s.Plants))
	seenRenewable := false
	for _, p := range s.Plants {
		if p.Key == "" {
			return fmt.Errorf("%w: plant %q has no key", ErrInvalidScenario, p.Name)
		}
		if keys[p.Key] {
			return fmt.Errorf("%w: duplicate plant key %q", ErrInvalidScenario, p.Key)
		}
		keys[p.Key] = true

		if p.MaxOutput < 0 || p.MinOutput < 0 || p.MinOutput > p.MaxOutput {
			return fmt.Errorf("%w: plant %q needs 0 <= min <= max", ErrInvalidScenario, p.Key)
		}
		if p.RampRate <= 0 {
			return fmt.Errorf("%w: plant %q ramp rate must be positive", ErrInvalidScenario, p.Key)
		}

		switch p.Role {
		case RoleControllable:
			if seenRenewable {
				return fmt.Errorf("%w: controllable plant %q listed after a renewable", ErrInvalidScenario, p.Key)
			}
		case RoleRenewable:
			seenRenewable = true
			if p.Source != VariableSolar && p.Source != VariableWind {
				return fmt.Errorf("%w: renewable %q has unknown source %q", ErrInvalidScenario, p.Key, p.Source)
			}
		default:
			return fmt.Errorf("%w: plant %q has unknown role %q", ErrInvalidScenario, p.Key, p.Role)
		}
	}

	if len(s.Consumers) == 0 {
		return fmt.Errorf("%w: no consumers", ErrInvalidScenario)
	}
	for _, c := range s.Consumers {
		if c.BaseLoad < 0 {
			return fmt.Errorf("%w: consumer %q base load is negative", ErrInvalidScenario, c.Key)
		}
	}
	return nil
}

// Controllable returns the specs of operator-controlled plants in order.
func (s Scenario) Controllable() []PlantSpec {
	return s.plantsWithRole(RoleControllable)
}

// Renewables returns the specs of weather-driven plants in order.
func (s Scenario) Renewables() []PlantSpec {
	return s.plantsWithRole(RoleRenewable)
}

func (s Scenario) plantsWithRole(role Role) []PlantSpec {
	var out []PlantSpec
	for _, p := range s.Plants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// WeatherFor returns the weather spec of a variable.
func (s Scenario) WeatherFor(v Variable) (WeatherSpec, bool) {
	for _, w := range s.Weather {
		if w.Variable == v {
			return w, true
		}
	}
	return WeatherSpec{}, false
}

// Episode identifies one simulated day.
type Episode struct {
	ID        string    `json:"id"`
	Seed      uint64    `json:"seed"`
	Scenario  string    `json:"scenario"`
	StartedAt time.Time `json:"started_at"`
}

// TurnRecord is the raw outcome of one turn, kept for history and logging.
type TurnRecord struct {
	EpisodeID  string    `json:"episode_id"`
	Turn       int       `json:"turn"`
	Action     []float64 `json:"action"`
	Reward     float64   `json:"reward"`
	Score      float64   `json:"score"`
	Production float64   `json:"production_mw"`
	Demand     float64   `json:"demand_mw"`
	Unmet      float64   `json:"unmet_mw"`
	Wasted     float64   `json:"wasted_mw"`
	Cost       float64   `json:"cost"`
	Emissions  float64   `json:"emissions"`
	Blackout   bool      `json:"blackout"`
}
