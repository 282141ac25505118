package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"grid_simulator/internal/model"
)

// Grid is the physical network: plants in scenario order and the consumers
// they serve.
type Grid struct {
	plants    []*Plant
	byKey     map[string]*Plant
	consumers []*Consumer
}

// Balance is the supply and demand outcome of one turn.
type Balance struct {
	TotalProduction float64 `json:"total_production_mw"`
	TotalDemand     float64 `json:"total_demand_mw"`
	Delta           float64 `json:"delta_mw"` // production - demand
	IsBlackout      bool    `json:"is_blackout"`
	UnmetDemand     float64 `json:"unmet_demand_mw"`
	WastedEnergy    float64 `json:"wasted_energy_mw"`
}

func New() *Grid {
	return &Grid{byKey: make(map[string]*Plant)}
}

// FromScenario builds a grid with every plant off and consumers at base load.
func FromScenario(s model.Scenario) (*Grid, error) {
	g := New()
	for _, spec := range s.Plants {
		if err := g.AddPlant(NewPlant(spec)); err != nil {
			return nil, err
		}
	}
	for _, spec := range s.Consumers {
		g.AddConsumer(NewConsumer(spec))
	}
	return g, nil
}

// AddPlant appends a plant. Keys must be unique.
func (g *Grid) AddPlant(p *Plant) error {
	if _, ok := g.byKey[p.Key()]; ok {
		return fmt.Errorf("duplicate plant %q", p.Key())
	}
	g.plants = append(g.plants, p)
	g.byKey[p.Key()] = p
	return nil
}

func (g *Grid) AddConsumer(c *Consumer) {
	g.consumers = append(g.consumers, c)
}

// Plants returns all plants in insertion order.
func (g *Grid) Plants() []*Plant { return g.plants }

// Plant looks a plant up by key.
func (g *Grid) Plant(key string) (*Plant, bool) {
	p, ok := g.byKey[key]
	return p, ok
}

// Controllable returns the operator-driven plants in order. Their position
// matches the action vector index.
func (g *Grid) Controllable() []*Plant {
	return g.withRole(model.RoleControllable)
}

// Renewables returns the weather-driven plants in order.
func (g *Grid) Renewables() []*Plant {
	return g.withRole(model.RoleRenewable)
}

func (g *Grid) withRole(role model.Role) []*Plant {
	var out []*Plant
	for _, p := range g.plants {
		if p.spec.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func (g *Grid) Consumers() []*Consumer { return g.consumers }

// Statuses returns a snapshot of every plant.
func (g *Grid) Statuses() []Status {
	out := make([]Status, len(g.plants))
	for i, p := range g.plants {
		out[i] = p.Status()
	}
	return out
}

// Production is the sum of current plant outputs.
func (g *Grid) Production() float64 {
	out := make([]float64, len(g.plants))
	for i, p := range g.plants {
		out[i] = p.Output
	}
	return floats.Sum(out)
}

// Demand is the sum of current consumer loads.
func (g *Grid) Demand() float64 {
	loads := make([]float64, len(g.consumers))
	for i, c := range g.consumers {
		loads[i] = c.Load
	}
	return floats.Sum(loads)
}

// Balance compares current production against current demand.
func (g *Grid) Balance() Balance {
	return Compute(g.Production(), g.Demand())
}

// Compute derives the balance of a production and demand pair. Exactly one
// of unmet and wasted can be positive.
func Compute(production, demand float64) Balance {
	delta := production - demand
	return Balance{
		TotalProduction: production,
		TotalDemand:     demand,
		Delta:           delta,
		IsBlackout:      delta < 0,
		UnmetDemand:     math.Max(0, -delta),
		WastedEnergy:    math.Max(0, delta),
	}
}

// Reset turns every plant off and restores base loads.
func (g *Grid) Reset() {
	for _, p := range g.plants {
		p.Reset()
	}
	for _, c := range g.consumers {
		c.SetLoad(c.BaseLoad())
	}
}

// ExpectedGeneration returns the production the grid would reach if each
// controllable plant moved toward its target in MW, with renewables holding
// their current output.
func (g *Grid) ExpectedGeneration(targets []float64) float64 {
	var total float64
	for i, p := range g.Controllable() {
		if i < len(targets) {
			total += p.Preview(targets[i])
		} else {
			total += p.Output
		}
	}
	for _, p := range g.Renewables() {
		total += p.Output
	}
	return total
}
