package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub(testLogger())
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub, testLogger())
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnReset(t *testing.T) {
	bridge, client := newTestBridge()

	e, err := env.New(model.DefaultScenario(), bridge)
	require.NoError(t, err)
	obs, info, err := e.Reset(7)
	require.NoError(t, err)

	msg := receiveEnvelope(t, client)
	assert.Equal(t, TypeEnvState, msg.Type)

	var p StatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, info.EpisodeID, p.Episode.ID)
	assert.Equal(t, uint64(7), p.Episode.Seed)
	assert.Equal(t, 0, p.Info.Turn)
	assert.InDeltaSlice(t, []float64(obs), []float64(p.Observation), 1e-9)
	assert.Len(t, p.Info.Plants, 5)
}

func TestBridge_OnTurn(t *testing.T) {
	bridge, client := newTestBridge()

	e, err := env.New(model.DefaultScenario(), bridge)
	require.NoError(t, err)
	_, _, err = e.Reset(7)
	require.NoError(t, err)
	receiveEnvelope(t, client) // env:state

	res, err := e.Step([]float64{2, 0.5, -1})
	require.NoError(t, err)

	msg := receiveEnvelope(t, client)
	assert.Equal(t, TypeEnvTurn, msg.Type)

	var p TurnPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, []float64{1, 0.5, 0}, p.Action)
	assert.Equal(t, 1, p.Result.Info.Turn)
	assert.InDelta(t, res.Reward, p.Result.Reward, 1e-9)
	assert.Equal(t, res.Info.IsBlackout, p.Result.Info.IsBlackout)
	assert.False(t, p.Result.Truncated)
}
