package ws

import (
	"encoding/json"

	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeEnvReset   = "env:reset"
	TypeEnvStep    = "env:step"
	TypeEnvPreview = "env:preview"
	TypeEnvHistory = "env:history"

	// Server -> Client
	TypeEnvScenario = "env:scenario"
	TypeEnvState    = "env:state"
	TypeEnvTurn     = "env:turn"
	TypeEnvError    = "env:error"
)

// Client -> Server messages

// ResetPayload starts a new episode. A nil seed picks a random one.
type ResetPayload struct {
	Seed *uint64 `json:"seed,omitempty"`
}

type ActionPayload struct {
	Action []float64 `json:"action"`
}

// HistoryRequestPayload asks for turns [from, to) of an episode. An empty
// episode ID means the running episode; to <= 0 means through the end.
type HistoryRequestPayload struct {
	EpisodeID string `json:"episode_id"`
	From      int    `json:"from"`
	To        int    `json:"to"`
}

// Server -> Client messages

type CategoryInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ScenarioPayload struct {
	Scenario        model.Scenario                  `json:"scenario"`
	ObservationSize int                             `json:"observation_size"`
	ActionSize      int                             `json:"action_size"`
	Categories      map[model.Category]CategoryInfo `json:"categories"`
}

// StatePayload is the environment right after a reset, or the latest state
// sent to a client that just connected.
type StatePayload struct {
	Episode     model.Episode   `json:"episode"`
	Observation env.Observation `json:"observation"`
	Info        env.Info        `json:"info"`
}

type TurnPayload struct {
	Episode model.Episode  `json:"episode"`
	Action  []float64      `json:"action"`
	Result  env.StepResult `json:"result"`
}

type PreviewPayload struct {
	Action             []float64 `json:"action"`
	ExpectedGeneration float64   `json:"expected_generation_mw"`
}

type HistoryPayload struct {
	EpisodeID string             `json:"episode_id"`
	Turns     []model.TurnRecord `json:"turns"`
}

type ErrorPayload struct {
	Request string `json:"request"`
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func ScenarioFromEnv(e *env.Environment) ScenarioPayload {
	cats := make(map[model.Category]CategoryInfo, len(model.CategoryCatalog))
	for c, info := range model.CategoryCatalog {
		cats[c] = CategoryInfo{Name: info.Name, Color: info.Color}
	}
	return ScenarioPayload{
		Scenario:        e.Scenario(),
		ObservationSize: e.ObservationSize(),
		ActionSize:      e.ActionSize(),
		Categories:      cats,
	}
}
