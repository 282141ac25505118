package env

import "grid_simulator/internal/model"

// ResetEvent is emitted once a new episode is ready.
type ResetEvent struct {
	Episode     model.Episode
	Observation Observation
	Info        Info
}

// TurnEvent is emitted after a turn is fully computed. Action holds the
// clipped values the plants were driven with.
type TurnEvent struct {
	Episode model.Episode
	Action  []float64
	Result  StepResult
}

// Record flattens the event for history and logging.
func (e TurnEvent) Record() model.TurnRecord {
	info := e.Result.Info
	return model.TurnRecord{
		EpisodeID:  e.Episode.ID,
		Turn:       info.Turn,
		Action:     e.Action,
		Reward:     e.Result.Reward,
		Score:      info.Summary.Score,
		Production: info.Balance.TotalProduction,
		Demand:     info.Balance.TotalDemand,
		Unmet:      info.Balance.UnmetDemand,
		Wasted:     info.Balance.WastedEnergy,
		Cost:       info.Cost,
		Emissions:  info.Emissions,
		Blackout:   info.IsBlackout,
	}
}

// Callback receives environment events. Calls are synchronous, happen
// outside the environment lock and are serialized in the order the events
// were produced, even when several goroutines step the same environment.
// A callback must not call back into the Environment that emitted it.
type Callback interface {
	OnReset(e ResetEvent)
	OnTurn(e TurnEvent)
}

// Callbacks fans events out to several observers in order.
type Callbacks []Callback

func (cs Callbacks) OnReset(e ResetEvent) {
	for _, c := range cs {
		c.OnReset(e)
	}
}

func (cs Callbacks) OnTurn(e TurnEvent) {
	for _, c := range cs {
		c.OnTurn(e)
	}
}

type nopCallback struct{}

func (nopCallback) OnReset(ResetEvent) {}
func (nopCallback) OnTurn(TurnEvent)   {}
