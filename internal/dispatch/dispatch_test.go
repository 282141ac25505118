package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_simulator/internal/env"
	"grid_simulator/internal/grid"
	"grid_simulator/internal/model"
)

func offPlants() []grid.Status {
	return []grid.Status{
		{Key: "gas"}, {Key: "coal"}, {Key: "nuclear"}, {Key: "solar"}, {Key: "wind"},
	}
}

func TestConstant_ReturnsCopy(t *testing.T) {
	c := Constant{Action: []float64{0.1, 0.2, 0.3}}
	a := c.Act(nil, env.Info{})
	a[0] = 9
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, c.Action)
	assert.Equal(t, "constant", c.Name())
}

func TestMeritOrder_CheapestFirst(t *testing.T) {
	m := NewMeritOrder(model.DefaultScenario(), 0)
	info := env.Info{
		Forecast: env.Forecast{Demand: []float64{300}, Solar: []float64{0}, Wind: []float64{50}},
		Plants:   offPlants(),
	}
	assert.InDelta(t, 250, m.NetDemand(info), 1e-9)

	// nuclear asks for 250 but reaches 20, coal reaches 50, gas covers the rest
	a := m.Act(nil, info)
	require.Len(t, a, 3)
	assert.InDelta(t, 1, a[0], 1e-9)         // gas
	assert.InDelta(t, 1, a[1], 1e-9)         // coal
	assert.InDelta(t, 250.0/300, a[2], 1e-9) // nuclear
}

func TestMeritOrder_LowDemandUsesBaseload(t *testing.T) {
	m := NewMeritOrder(model.DefaultScenario(), 0)
	plants := offPlants()
	plants[2].Output = 200
	info := env.Info{
		Forecast: env.Forecast{Demand: []float64{210}, Solar: []float64{0}, Wind: []float64{20}},
		Plants:   plants,
	}

	a := m.Act(nil, info)
	assert.InDelta(t, 190.0/300, a[2], 1e-9)
	assert.InDelta(t, 0, a[1], 1e-9)
	assert.InDelta(t, 0, a[0], 1e-9)
}

func TestMeritOrder_KeepsMustRunAtFloor(t *testing.T) {
	m := NewMeritOrder(model.DefaultScenario(), 0)
	plants := offPlants()
	plants[2].Output = 160
	info := env.Info{
		// Renewables cover everything.
		Forecast: env.Forecast{Demand: []float64{200}, Solar: []float64{150}, Wind: []float64{100}},
		Plants:   plants,
	}

	assert.InDelta(t, 0, m.NetDemand(info), 1e-9)
	a := m.Act(nil, info)
	assert.InDelta(t, 0.5, a[2], 1e-9) // 150 MW floor
	assert.InDelta(t, 0, a[0], 1e-9)
}

func TestMeritOrder_CapsRenewableForecast(t *testing.T) {
	m := NewMeritOrder(model.DefaultScenario(), 0)
	// Wind forecast above the 100 MW farm cannot count fully.
	info := env.Info{Forecast: env.Forecast{Demand: []float64{400}, Solar: []float64{0}, Wind: []float64{180}}}
	assert.InDelta(t, 300, m.NetDemand(info), 1e-9)
}

func TestMeritOrder_FallsBackToCurrent(t *testing.T) {
	m := NewMeritOrder(model.DefaultScenario(), 0)
	info := env.Info{CurrentDemand: 300, SolarPower: 40, WindPower: 60}
	assert.InDelta(t, 200, m.NetDemand(info), 1e-9)
}

func TestMeritOrder_BeatsIdleOverEpisode(t *testing.T) {
	play := func(c Controller) env.Summary {
		e, err := env.New(model.DefaultScenario(), nil)
		require.NoError(t, err)
		obs, info, err := e.Reset(2024)
		require.NoError(t, err)
		for {
			res, err := e.Step(c.Act(obs, info))
			require.NoError(t, err)
			obs, info = res.Observation, res.Info
			if res.Truncated {
				return info.Summary
			}
		}
	}

	idle := play(Constant{Action: []float64{0, 0, 0}})
	merit := play(NewMeritOrder(model.DefaultScenario(), 0.05))

	assert.Equal(t, 24, merit.Turns)
	assert.Greater(t, merit.Score, idle.Score)
	assert.Less(t, merit.BlackoutTurns, idle.BlackoutTurns)
	assert.Less(t, merit.UnmetMWh, idle.UnmetMWh)
}
