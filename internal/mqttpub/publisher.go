package mqttpub

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"grid_simulator/internal/env"
	"grid_simulator/internal/grid"
	"grid_simulator/internal/model"
)

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// TurnMessage is the payload published after every turn.
type TurnMessage struct {
	model.TurnRecord
	Hour      int           `json:"hour"`
	Plants    []grid.Status `json:"plants"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher sends episode and turn summaries to an MQTT broker. It
// implements env.Callback. Publish failures are logged, never returned.
type Publisher struct {
	client  client
	topic   string
	logger  *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewPublisher(c client, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client:  c,
		topic:   topic,
		logger:  logger,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

// Connect dials the broker with auto-reconnect enabled.
func Connect(broker, clientID string, logger *logrus.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Errorf("MQTT connection lost: %v", err)
	})

	c := mqtt.NewClient(opts)
	logger.Infof("Connecting to MQTT broker %s...", broker)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	logger.Info("Connected to MQTT broker")
	return c, nil
}

// EpisodeTopic carries the retained description of the running episode.
func (p *Publisher) EpisodeTopic() string { return p.topic + "/episode" }

// TurnTopic carries one message per turn.
func (p *Publisher) TurnTopic() string { return p.topic + "/turn" }

func (p *Publisher) OnReset(e env.ResetEvent) {
	p.publish(p.EpisodeTopic(), true, e.Episode)
}

func (p *Publisher) OnTurn(e env.TurnEvent) {
	info := e.Result.Info
	p.publish(p.TurnTopic(), false, TurnMessage{
		TurnRecord: e.Record(),
		Hour:       info.Hour,
		Plants:     info.Plants,
		Timestamp:  p.now(),
	})
}

func (p *Publisher) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Errorf("Failed to encode MQTT payload for %s: %v", topic, err)
		return
	}

	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		p.logger.Warnf("MQTT publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Errorf("MQTT publish to %s failed: %v", topic, err)
	}
}
