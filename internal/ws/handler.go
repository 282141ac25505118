package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
	"grid_simulator/internal/store"
)

var errUnknownType = errors.New("unknown message type")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the
// environment. Resets and turns reach every client through the Bridge;
// previews, history and errors go back to the requesting client only.
type Handler struct {
	hub    *Hub
	env    *env.Environment
	store  *store.Store
	logger *logrus.Logger
}

func NewHandler(hub *Hub, e *env.Environment, s *store.Store, logger *logrus.Logger) *Handler {
	return &Handler{hub: hub, env: e, store: s, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendScenario(client)
	h.sendState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnf("WebSocket read error: %v", err)
			}
			return
		}

		if reply := h.handleMessage(msg); reply != nil {
			c.trySend(reply)
		}
	}
}

// handleMessage applies one client message and returns the private reply,
// if any.
func (h *Handler) handleMessage(msg []byte) []byte {
	var e Envelope
	if err := json.Unmarshal(msg, &e); err != nil {
		h.logger.Warnf("Invalid message: %v", err)
		return h.errorMessage("", err)
	}

	switch e.Type {
	case TypeEnvReset:
		var p ResetPayload
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return h.errorMessage(e.Type, err)
			}
		}
		var err error
		if p.Seed != nil {
			_, _, err = h.env.Reset(*p.Seed)
		} else {
			_, _, err = h.env.ResetRandom()
		}
		if err != nil {
			return h.errorMessage(e.Type, err)
		}
		return nil

	case TypeEnvStep:
		var p ActionPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return h.errorMessage(e.Type, err)
		}
		if _, err := h.env.Step(p.Action); err != nil {
			return h.errorMessage(e.Type, err)
		}
		return nil

	case TypeEnvPreview:
		var p ActionPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return h.errorMessage(e.Type, err)
		}
		total, err := h.env.Preview(p.Action)
		if err != nil {
			return h.errorMessage(e.Type, err)
		}
		return h.envelope(TypeEnvPreview, PreviewPayload{Action: p.Action, ExpectedGeneration: total})

	case TypeEnvHistory:
		var p HistoryRequestPayload
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return h.errorMessage(e.Type, err)
			}
		}
		return h.historyMessage(p)

	default:
		h.logger.Warnf("Unknown message type: %s", e.Type)
		return h.errorMessage(e.Type, errUnknownType)
	}
}

func (h *Handler) historyMessage(p HistoryRequestPayload) []byte {
	id := p.EpisodeID
	if id == "" {
		id = h.env.Episode().ID
	}
	to := p.To
	if to <= 0 {
		to = h.store.TurnCount(id) + 1
	}
	turns := h.store.TurnsInRange(id, p.From, to)
	if turns == nil {
		turns = []model.TurnRecord{}
	}
	return h.envelope(TypeEnvHistory, HistoryPayload{EpisodeID: id, Turns: turns})
}

func (h *Handler) sendScenario(c *Client) {
	if msg := h.envelope(TypeEnvScenario, ScenarioFromEnv(h.env)); msg != nil {
		c.trySend(msg)
	}
}

// sendState brings a late client up to date: the latest state plus the
// turns played so far.
func (h *Handler) sendState(c *Client) {
	obs, info, ok := h.env.Current()
	if !ok {
		return
	}
	if msg := h.envelope(TypeEnvState, StatePayload{
		Episode:     h.env.Episode(),
		Observation: obs,
		Info:        info,
	}); msg != nil {
		c.trySend(msg)
	}
	if msg := h.historyMessage(HistoryRequestPayload{EpisodeID: info.EpisodeID}); msg != nil {
		c.trySend(msg)
	}
}

func (h *Handler) envelope(msgType string, payload any) []byte {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		h.logger.Errorf("Error creating %s message: %v", msgType, err)
		return nil
	}
	return msg
}

func (h *Handler) errorMessage(request string, err error) []byte {
	return h.envelope(TypeEnvError, ErrorPayload{Request: request, Message: err.Error()})
}
