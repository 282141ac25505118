package env

import (
	"gonum.org/v1/gonum/floats"

	"grid_simulator/internal/grid"
	"grid_simulator/internal/model"
	"grid_simulator/internal/weather"
)

// Observation is the normalized state vector handed to a controller:
// plant utilizations, realized wind/solar/demand, their forecasts and the
// episode progress.
type Observation []float64

// Forecast holds the forecast window in physical units.
type Forecast struct {
	Demand []float64 `json:"demand_mw"`
	Solar  []float64 `json:"solar_mw"`
	Wind   []float64 `json:"wind_mw"`
}

// Summary holds running episode totals.
type Summary struct {
	Turns          int     `json:"turns"`
	Score          float64 `json:"score"` // sum of rewards
	TotalCost      float64 `json:"total_cost"`
	TotalEmissions float64 `json:"total_emissions"`
	BlackoutTurns  int     `json:"blackout_turns"`
	UnmetMWh       float64 `json:"unmet_mwh"`
	WastedMWh      float64 `json:"wasted_mwh"`
}

// Info carries raw quantities for display and logging.
type Info struct {
	EpisodeID string `json:"episode_id"`
	Seed      uint64 `json:"seed"`
	Turn      int    `json:"turn"`
	Hour      int    `json:"hour"`

	Forecast        Forecast      `json:"forecast"`
	TotalGeneration float64       `json:"total_generation_mw"`
	CurrentDemand   float64       `json:"current_demand_mw"`
	SolarPower      float64       `json:"solar_power_mw"`
	WindPower       float64       `json:"wind_power_mw"`
	Plants          []grid.Status `json:"plants"`
	IsBlackout      bool          `json:"is_blackout"`
	Balance         grid.Balance  `json:"balance"`

	// Per-turn cost, zero on reset.
	Cost      float64 `json:"cost"`
	Emissions float64 `json:"emissions"`
	Reward    float64 `json:"reward"`

	Summary Summary `json:"summary"`
}

// StepResult is the outcome of one Step call.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Terminated  bool        `json:"terminated"`
	Truncated   bool        `json:"truncated"`
	Info        Info        `json:"info"`
}

// observationOrder is the layout of the weather part of the vector.
var observationOrder = []model.Variable{model.VariableWind, model.VariableSolar, model.VariableDemand}

// ObservationSize returns the vector length for a scenario.
func ObservationSize(s model.Scenario) int {
	n := len(observationOrder)
	return len(s.Plants) + n + n*s.Horizon + 1
}

func (e *Environment) observe() Observation {
	obs := make(Observation, 0, ObservationSize(e.scenario))
	for _, p := range e.grid.Plants() {
		obs = append(obs, p.Utilization())
	}
	for _, v := range observationOrder {
		obs = append(obs, e.bundle.Actual[v])
	}
	for _, v := range observationOrder {
		obs = append(obs, e.bundle.Forecast[v]...)
	}
	return append(obs, float64(e.turn)/float64(e.scenario.EpisodeLength))
}

func (e *Environment) info(b grid.Balance, cost, emissions, reward float64) Info {
	info := Info{
		EpisodeID:       e.episode.ID,
		Seed:            e.episode.Seed,
		Turn:            e.turn,
		Hour:            e.bundle.Hour % model.HoursPerDay,
		Forecast:        e.forecastMW(e.bundle),
		TotalGeneration: b.TotalProduction,
		CurrentDemand:   b.TotalDemand,
		Plants:          e.grid.Statuses(),
		IsBlackout:      b.IsBlackout,
		Balance:         b,
		Cost:            cost,
		Emissions:       emissions,
		Reward:          reward,
		Summary:         e.summary,
	}
	for _, p := range e.grid.Renewables() {
		switch p.Spec().Source {
		case model.VariableSolar:
			info.SolarPower += p.Output
		case model.VariableWind:
			info.WindPower += p.Output
		}
	}
	return info
}

// forecastMW scales forecast fractions back to MW using the installed
// renewable capacity and total consumer base load.
func (e *Environment) forecastMW(b weather.Bundle) Forecast {
	return Forecast{
		Demand: scale(b.Forecast[model.VariableDemand], e.baseLoad),
		Solar:  scale(b.Forecast[model.VariableSolar], e.capacity[model.VariableSolar]),
		Wind:   scale(b.Forecast[model.VariableWind], e.capacity[model.VariableWind]),
	}
}

func scale(values []float64, f float64) []float64 {
	return floats.ScaleTo(make([]float64, len(values)), f, values)
}
