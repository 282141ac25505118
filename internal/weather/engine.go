package weather

import (
	"fmt"
	"math/rand/v2"

	"grid_simulator/internal/model"
	"grid_simulator/internal/profile"
)

// Bundle is the weather of one turn: the realized value of each variable and
// its forecast for the following hours.
type Bundle struct {
	Hour     int                          `json:"hour"`
	Actual   map[model.Variable]float64   `json:"actual"`
	Forecast map[model.Variable][]float64 `json:"forecast"`
}

// Engine owns one NoiseProfile per variable, all drawing from a single
// seeded source.
type Engine struct {
	seed     uint64
	profiles []*NoiseProfile // in model.Variables order
}

// NewEngine seeds a fresh source and builds a profile per variable. Every
// variable in model.Variables must have a spec.
func NewEngine(specs []model.WeatherSpec, seed uint64) (*Engine, error) {
	src := rand.NewPCG(seed, 0)

	byVar := make(map[model.Variable]model.WeatherSpec, len(specs))
	for _, s := range specs {
		byVar[s.Variable] = s
	}

	e := &Engine{seed: seed}
	for _, v := range model.Variables {
		spec, ok := byVar[v]
		if !ok {
			return nil, fmt.Errorf("missing %s weather profile", v)
		}
		base, err := profile.FromSlice(spec.Profile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v, err)
		}
		e.profiles = append(e.profiles, NewNoiseProfile(v, base, spec.Volatility, src))
	}
	return e, nil
}

func (e *Engine) Seed() uint64 { return e.seed }

// Profile returns the noise profile of a variable.
func (e *Engine) Profile(v model.Variable) (*NoiseProfile, bool) {
	for _, p := range e.profiles {
		if p.variable == v {
			return p, true
		}
	}
	return nil, false
}

// Advance draws the weather for hour. Profiles are sampled in a fixed order
// so a seed always yields the same sequence.
func (e *Engine) Advance(hour, horizon int) Bundle {
	b := Bundle{
		Hour:     hour,
		Actual:   make(map[model.Variable]float64, len(e.profiles)),
		Forecast: make(map[model.Variable][]float64, len(e.profiles)),
	}
	for _, p := range e.profiles {
		actual, forecast := p.Sample(hour, horizon)
		b.Actual[p.variable] = actual
		b.Forecast[p.variable] = forecast
	}
	return b
}
