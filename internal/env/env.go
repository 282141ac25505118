package env

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"grid_simulator/internal/grid"
	"grid_simulator/internal/model"
	"grid_simulator/internal/weather"
)

var (
	ErrNotReset      = errors.New("step called before reset")
	ErrInvalidAction = errors.New("invalid action")
	ErrEpisodeDone   = errors.New("episode is over, reset to start a new one")
)

// Environment runs one simulated day at a time. A controller resets it,
// then steps it once per hour with an action vector holding one fraction of
// capacity per controllable plant.
type Environment struct {
	mu sync.Mutex
	// dispatch is taken before mu is released and held while callbacks
	// run, so observers see events in the order they were produced.
	dispatch sync.Mutex

	scenario model.Scenario
	callback Callback
	now      func() time.Time

	// Derived from the scenario once.
	baseLoad float64
	capacity map[model.Variable]float64

	// Episode state, rebuilt on every reset.
	episode model.Episode
	grid    *grid.Grid
	weather *weather.Engine
	bundle  weather.Bundle
	turn    int
	summary Summary
	ready   bool
	done    bool

	lastObs  Observation
	lastInfo Info
}

// New validates the scenario and returns an environment awaiting Reset.
// cb may be nil.
func New(s model.Scenario, cb Callback) (*Environment, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if cb == nil {
		cb = nopCallback{}
	}

	e := &Environment{
		scenario: s,
		callback: cb,
		now:      time.Now,
		capacity: make(map[model.Variable]float64),
	}
	for _, c := range s.Consumers {
		e.baseLoad += c.BaseLoad
	}
	for _, p := range s.Renewables() {
		e.capacity[p.Source] += p.MaxOutput
	}
	return e, nil
}

// Scenario returns the static composition of the environment.
func (e *Environment) Scenario() model.Scenario { return e.scenario }

// ObservationSize is the length of every observation vector.
func (e *Environment) ObservationSize() int { return ObservationSize(e.scenario) }

// ActionSize is the number of controllable plants.
func (e *Environment) ActionSize() int { return len(e.scenario.Controllable()) }

// Reset starts a new episode from seed. The same seed followed by the same
// actions always yields the same observations and rewards.
func (e *Environment) Reset(seed uint64) (Observation, Info, error) {
	e.mu.Lock()

	w, err := weather.NewEngine(e.scenario.Weather, seed)
	if err != nil {
		e.mu.Unlock()
		return nil, Info{}, fmt.Errorf("weather: %w", err)
	}
	g, err := grid.FromScenario(e.scenario)
	if err != nil {
		e.mu.Unlock()
		return nil, Info{}, fmt.Errorf("grid: %w", err)
	}

	e.episode = model.Episode{
		ID:        uuid.NewString(),
		Seed:      seed,
		Scenario:  e.scenario.Name,
		StartedAt: e.now(),
	}
	e.weather = w
	e.grid = g
	e.turn = 0
	e.summary = Summary{}
	e.ready = true
	e.done = false

	e.applyWeather(e.weather.Advance(0, e.scenario.Horizon))
	obs := e.observe()
	info := e.info(e.grid.Balance(), 0, 0, 0)
	e.lastObs, e.lastInfo = obs, info
	ev := ResetEvent{Episode: e.episode, Observation: obs, Info: info}
	e.dispatch.Lock()
	e.mu.Unlock()

	e.callback.OnReset(ev)
	e.dispatch.Unlock()
	return obs, info, nil
}

// ResetRandom starts a new episode from a freshly drawn seed, reported in
// the returned info.
func (e *Environment) ResetRandom() (Observation, Info, error) {
	return e.Reset(rand.Uint64())
}

// Step advances the simulation by one hour.
func (e *Environment) Step(action []float64) (StepResult, error) {
	e.mu.Lock()

	if err := e.checkAction(action); err != nil {
		e.mu.Unlock()
		return StepResult{}, err
	}
	clipped := clip(action)

	e.turn++

	// Controllable plants first: only they carry cost and emissions.
	var cost, emissions float64
	for i, p := range e.grid.Controllable() {
		c, em := p.Advance(clipped[i] * p.MaxOutput())
		cost += c
		emissions += em
	}

	e.applyWeather(e.weather.Advance(e.turn, e.scenario.Horizon))

	b := e.grid.Balance()
	reward := e.reward(b, cost, emissions)

	e.summary.Turns = e.turn
	e.summary.Score += reward
	e.summary.TotalCost += cost
	e.summary.TotalEmissions += emissions
	e.summary.UnmetMWh += b.UnmetDemand
	e.summary.WastedMWh += b.WastedEnergy
	if b.IsBlackout {
		e.summary.BlackoutTurns++
	}

	truncated := e.turn >= e.scenario.EpisodeLength
	e.done = truncated

	res := StepResult{
		Observation: e.observe(),
		Reward:      reward,
		Terminated:  false, // blackouts are penalized, never fatal
		Truncated:   truncated,
		Info:        e.info(b, cost, emissions, reward),
	}
	e.lastObs, e.lastInfo = res.Observation, res.Info
	ev := TurnEvent{Episode: e.episode, Action: clipped, Result: res}
	e.dispatch.Lock()
	e.mu.Unlock()

	e.callback.OnTurn(ev)
	e.dispatch.Unlock()
	return res, nil
}

// Preview returns the total generation the grid would reach next turn for
// action, with renewables at their current output. Nothing is advanced.
func (e *Environment) Preview(action []float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return 0, ErrNotReset
	}
	if len(action) != len(e.grid.Controllable()) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidAction, len(action), len(e.grid.Controllable()))
	}
	clipped := clip(action)
	targets := make([]float64, len(clipped))
	for i, p := range e.grid.Controllable() {
		targets[i] = clipped[i] * p.MaxOutput()
	}
	return e.grid.ExpectedGeneration(targets), nil
}

// Current returns the latest observation and info. ok is false before the
// first reset.
func (e *Environment) Current() (obs Observation, info Info, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastObs, e.lastInfo, e.ready
}

// Episode returns the running episode.
func (e *Environment) Episode() model.Episode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episode
}

func (e *Environment) Turn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn
}

// Done reports whether the episode reached its last turn.
func (e *Environment) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// checkAction rejects programming errors. Must be called with mu held.
func (e *Environment) checkAction(action []float64) error {
	if !e.ready {
		return ErrNotReset
	}
	if e.done {
		return ErrEpisodeDone
	}
	want := len(e.grid.Controllable())
	if len(action) != want {
		return fmt.Errorf("%w: got %d values, want %d", ErrInvalidAction, len(action), want)
	}
	for i, a := range action {
		if math.IsNaN(a) {
			return fmt.Errorf("%w: value %d is NaN", ErrInvalidAction, i)
		}
	}
	return nil
}

// applyWeather drives renewables and consumers from the realized weather.
// Must be called with mu held.
func (e *Environment) applyWeather(b weather.Bundle) {
	e.bundle = b
	for _, p := range e.grid.Renewables() {
		p.Advance(b.Actual[p.Spec().Source] * p.MaxOutput())
	}
	demand := b.Actual[model.VariableDemand]
	for _, c := range e.grid.Consumers() {
		c.SetLoad(demand * c.BaseLoad())
	}
}

func (e *Environment) reward(b grid.Balance, cost, emissions float64) float64 {
	w := e.scenario.Reward
	return -(w.Cost*cost + w.Emissions*emissions + w.Waste*b.WastedEnergy + w.Unmet*b.UnmetDemand)
}

// clip bounds every component to [0, 1].
func clip(action []float64) []float64 {
	out := make([]float64, len(action))
	for i, a := range action {
		out[i] = math.Min(1, math.Max(0, a))
	}
	return out
}
