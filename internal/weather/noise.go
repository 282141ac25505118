package weather

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"grid_simulator/internal/model"
	"grid_simulator/internal/profile"
)

// Uncertainty multipliers at the first and last point of a sample window.
const (
	NearUncertainty = 0.5
	FarUncertainty  = 3.0
)

// NoiseProfile draws noisy actual and forecast values of one variable around
// its daily base profile.
type NoiseProfile struct {
	variable   model.Variable
	base       profile.Hourly
	volatility float64
	src        rand.Source
}

// NewNoiseProfile creates a profile drawing from src. The source is shared,
// not copied: every draw advances it.
func NewNoiseProfile(v model.Variable, base profile.Hourly, volatility float64, src rand.Source) *NoiseProfile {
	return &NoiseProfile{variable: v, base: base, volatility: volatility, src: src}
}

func (n *NoiseProfile) Variable() model.Variable { return n.variable }
func (n *NoiseProfile) Base() profile.Hourly     { return n.base }

// Sample returns the realized value at hour and a forecast for the next
// horizon hours. Noise grows linearly with the distance from hour.
func (n *NoiseProfile) Sample(hour, horizon int) (actual float64, forecast []float64) {
	if horizon < 0 {
		horizon = 0
	}
	trend := n.base.Window(hour, horizon+1)
	std := n.StdDev(hour, horizon)

	values := make([]float64, len(trend))
	for i := range trend {
		dist := distuv.Normal{Mu: 0, Sigma: std[i], Src: n.src}
		values[i] = math.Max(0, trend[i]+dist.Rand())
	}
	return values[0], values[1:]
}

// StdDev returns the noise standard deviation for each point of the window
// starting at hour: volatility * trend * uncertainty.
func (n *NoiseProfile) StdDev(hour, horizon int) []float64 {
	trend := n.base.Window(hour, horizon+1)
	std := UncertaintyRamp(horizon)
	for i := range std {
		std[i] = math.Abs(n.volatility * trend[i] * std[i])
	}
	return std
}

// UncertaintyRamp returns horizon+1 multipliers spaced evenly from
// NearUncertainty to FarUncertainty.
func UncertaintyRamp(horizon int) []float64 {
	if horizon < 1 {
		return []float64{NearUncertainty}
	}
	return floats.Span(make([]float64, horizon+1), NearUncertainty, FarUncertainty)
}
