package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"grid_simulator/internal/config"
	"grid_simulator/internal/env"
	"grid_simulator/internal/metrics"
	"grid_simulator/internal/model"
	"grid_simulator/internal/mqttpub"
	"grid_simulator/internal/sessionlog"
	"grid_simulator/internal/store"
	"grid_simulator/internal/ws"
)

func main() {
	configFile := flag.String("config", "", "config file (default: config.yaml in . or ./config)")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalf("Invalid log config: %v", err)
	}

	scenario, err := config.BuildScenario(cfg.Scenario)
	if err != nil {
		logger.Fatalf("Failed to build scenario: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"scenario": scenario.Name,
		"plants":   len(scenario.Plants),
		"horizon":  scenario.Horizon,
	}).Info("Scenario loaded")

	var publisher mqtt.Client
	if cfg.MQTT.Broker != "" {
		publisher, err = mqttpub.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID, logger)
		if err != nil {
			logger.Fatalf("MQTT: %v", err)
		}
		defer publisher.Disconnect(250)
	}

	srv, err := newServer(cfg, scenario, publisher, logger, time.Now())
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer srv.Close()

	// Serve frontend static files
	if _, err := os.Stat(*frontendDir); err == nil {
		logger.Infof("Serving frontend from %s", *frontendDir)
		srv.mux.Handle("/", http.FileServer(http.Dir(*frontendDir)))
	}

	logger.Infof("Starting server on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.mux); err != nil {
		logger.Fatal(err)
	}
}

// server holds everything wired around one environment.
type server struct {
	env     *env.Environment
	store   *store.Store
	hub     *ws.Hub
	mux     *http.ServeMux
	closers []io.Closer
}

// newServer wires the environment callbacks and HTTP routes. A nil mqttClient
// disables publishing.
func newServer(cfg *config.Config, scenario model.Scenario, mqttClient mqtt.Client, logger *logrus.Logger, now time.Time) (*server, error) {
	srv := &server{
		store: store.New(),
		hub:   ws.NewHub(logger),
		mux:   http.NewServeMux(),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	callbacks := env.Callbacks{
		store.NewRecorder(srv.store),
		metrics.New(reg),
		ws.NewBridge(srv.hub, logger),
	}

	if cfg.SessionLog.Enabled {
		w, err := sessionlog.Open(cfg.SessionLog.Dir, "human_game", now, logger)
		if err != nil {
			return nil, fmt.Errorf("session log: %w", err)
		}
		logger.Infof("Logging turns to %s", w.Path())
		callbacks = append(callbacks, w)
		srv.closers = append(srv.closers, w)
	}

	if mqttClient != nil {
		callbacks = append(callbacks, mqttpub.NewPublisher(mqttClient, cfg.MQTT.Topic, logger))
	}

	e, err := env.New(scenario, callbacks)
	if err != nil {
		srv.Close()
		return nil, err
	}
	srv.env = e

	srv.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	srv.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv.mux.Handle("/ws", ws.NewHandler(srv.hub, e, srv.store, logger))

	return srv, nil
}

func (s *server) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
