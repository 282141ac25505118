package ws

import (
	"github.com/sirupsen/logrus"

	"grid_simulator/internal/env"
)

// Bridge implements env.Callback and broadcasts events to the WebSocket hub.
type Bridge struct {
	hub    *Hub
	logger *logrus.Logger
}

func NewBridge(hub *Hub, logger *logrus.Logger) *Bridge {
	return &Bridge{hub: hub, logger: logger}
}

func (b *Bridge) OnReset(e env.ResetEvent) {
	msg, err := NewEnvelope(TypeEnvState, StatePayload{
		Episode:     e.Episode,
		Observation: e.Observation,
		Info:        e.Info,
	})
	if err != nil {
		b.logger.Errorf("Error marshaling reset state: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnTurn(e env.TurnEvent) {
	msg, err := NewEnvelope(TypeEnvTurn, TurnPayload{
		Episode: e.Episode,
		Action:  e.Action,
		Result:  e.Result,
	})
	if err != nil {
		b.logger.Errorf("Error marshaling turn: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
