package grid

import (
	"math"

	"grid_simulator/internal/model"
)

// Plant simulates one generation unit under capacity and ramp constraints.
type Plant struct {
	spec model.PlantSpec

	// State
	Output float64 // MW
	On     bool
}

// Status is a read-only snapshot of a plant for display and logging.
type Status struct {
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Category  model.Category `json:"category"`
	Output    float64        `json:"output_mw"`
	MaxOutput float64        `json:"max_output_mw"`
	On        bool           `json:"on"`
}

// NewPlant creates a plant at zero output.
func NewPlant(spec model.PlantSpec) *Plant {
	return &Plant{spec: spec}
}

func (p *Plant) Spec() model.PlantSpec { return p.spec }
func (p *Plant) Key() string           { return p.spec.Key }
func (p *Plant) MaxOutput() float64    { return p.spec.MaxOutput }

// Advance moves the output toward target for one hour and returns the cost
// and emissions of the hour. Any target is accepted: it is clamped to what
// the unit can physically do.
func (p *Plant) Advance(target float64) (cost, emissions float64) {
	p.Output = p.Preview(target)
	p.On = p.Output > 0

	cost = p.Output * p.spec.CostPerMW
	emissions = p.Output * p.spec.EmissionsPerMW
	return cost, emissions
}

// Preview returns the output Advance(target) would reach, without changing
// the plant.
func (p *Plant) Preview(target float64) float64 {
	target = p.feasibleTarget(target)

	delta := target - p.Output
	if math.Abs(delta) > p.spec.RampRate {
		// Inertia: move toward the target, no faster than the ramp rate.
		return p.Output + math.Copysign(p.spec.RampRate, delta)
	}
	return target
}

// feasibleTarget applies the technical minimum and nameplate capacity.
func (p *Plant) feasibleTarget(target float64) float64 {
	if target <= 0 || math.IsNaN(target) {
		return 0
	}
	// Below the technical floor the unit must be off, not idling.
	if target < p.spec.MinOutput {
		return 0
	}
	return math.Min(target, p.spec.MaxOutput)
}

// Utilization returns output as a fraction of capacity.
func (p *Plant) Utilization() float64 {
	if p.spec.MaxOutput <= 0 {
		return 0
	}
	return p.Output / p.spec.MaxOutput
}

// Status returns the current plant snapshot.
func (p *Plant) Status() Status {
	return Status{
		Key:       p.spec.Key,
		Name:      p.spec.Name,
		Category:  p.spec.Category,
		Output:    p.Output,
		MaxOutput: p.spec.MaxOutput,
		On:        p.On,
	}
}

// Reset turns the plant off.
func (p *Plant) Reset() {
	p.Output = 0
	p.On = false
}

// Consumer is an aggregate load whose demand is set by the weather engine.
type Consumer struct {
	spec model.ConsumerSpec
	Load float64 // MW
}

// NewConsumer creates a consumer drawing its base load.
func NewConsumer(spec model.ConsumerSpec) *Consumer {
	return &Consumer{spec: spec, Load: spec.BaseLoad}
}

func (c *Consumer) Key() string       { return c.spec.Key }
func (c *Consumer) Name() string      { return c.spec.Name }
func (c *Consumer) BaseLoad() float64 { return c.spec.BaseLoad }

// SetLoad overwrites the current demand.
func (c *Consumer) SetLoad(mw float64) {
	c.Load = mw
}
