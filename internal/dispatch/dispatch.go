package dispatch

import (
	"math"
	"sort"

	"grid_simulator/internal/env"
	"grid_simulator/internal/grid"
	"grid_simulator/internal/model"
)

// Controller picks the next action from what the environment reports.
type Controller interface {
	Name() string
	Act(obs env.Observation, info env.Info) []float64
}

// Constant always returns the same action.
type Constant struct {
	Action []float64
}

func (c Constant) Name() string { return "constant" }

func (c Constant) Act(env.Observation, env.Info) []float64 {
	out := make([]float64, len(c.Action))
	copy(out, c.Action)
	return out
}

// MeritOrder covers next hour's forecast net demand with the cheapest
// controllable plants first, within what each can reach in one ramp step.
type MeritOrder struct {
	// Reserve is the fraction of net demand scheduled on top as margin.
	Reserve float64

	plants   []model.PlantSpec // controllable, action order
	order    []int             // indexes into plants, cheapest first
	capacity map[model.Variable]float64
}

// NewMeritOrder builds a controller for the scenario's controllable plants.
func NewMeritOrder(s model.Scenario, reserve float64) *MeritOrder {
	m := &MeritOrder{
		Reserve:  reserve,
		plants:   s.Controllable(),
		capacity: make(map[model.Variable]float64),
	}
	for _, p := range s.Renewables() {
		m.capacity[p.Source] += p.MaxOutput
	}

	m.order = make([]int, len(m.plants))
	for i := range m.order {
		m.order[i] = i
	}
	sort.SliceStable(m.order, func(a, b int) bool {
		return m.plants[m.order[a]].CostPerMW < m.plants[m.order[b]].CostPerMW
	})
	return m
}

func (m *MeritOrder) Name() string { return "merit-order" }

// Act returns one capacity fraction per controllable plant.
func (m *MeritOrder) Act(_ env.Observation, info env.Info) []float64 {
	current := make(map[string]float64, len(info.Plants))
	for _, st := range info.Plants {
		current[st.Key] = st.Output
	}

	remaining := m.NetDemand(info) * (1 + m.Reserve)
	action := make([]float64, len(m.plants))
	for _, i := range m.order {
		spec := m.plants[i]
		p := grid.NewPlant(spec)
		p.Output = current[spec.Key]

		target := math.Min(math.Max(0, remaining), spec.MaxOutput)
		// A unit with a technical minimum is kept at its floor once
		// running: it cannot come back quickly.
		if spec.MinOutput > 0 && (target > 0 || p.Output > 0) {
			target = math.Max(target, spec.MinOutput)
		}

		remaining -= p.Preview(target)
		if spec.MaxOutput > 0 {
			action[i] = target / spec.MaxOutput
		}
	}
	return action
}

// NetDemand estimates next hour's demand left after renewables, in MW.
func (m *MeritOrder) NetDemand(info env.Info) float64 {
	f := info.Forecast
	demand := first(f.Demand, info.CurrentDemand)
	solar := math.Min(first(f.Solar, info.SolarPower), m.capacity[model.VariableSolar])
	wind := math.Min(first(f.Wind, info.WindPower), m.capacity[model.VariableWind])
	return math.Max(0, demand-solar-wind)
}

func first(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}
