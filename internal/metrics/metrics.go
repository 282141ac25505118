package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"grid_simulator/internal/env"
)

// Collector exports simulation outcomes to Prometheus. It implements
// env.Callback.
type Collector struct {
	episodes   prometheus.Counter
	turns      prometheus.Counter
	blackouts  prometheus.Counter
	unmet      prometheus.Counter
	wasted     prometheus.Counter
	reward     prometheus.Histogram
	score      prometheus.Gauge
	turn       prometheus.Gauge
	generation *prometheus.GaugeVec
	demand     prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		episodes: f.NewCounter(prometheus.CounterOpts{
			Name: "smartgrid_episodes_total",
			Help: "Number of episodes started.",
		}),
		turns: f.NewCounter(prometheus.CounterOpts{
			Name: "smartgrid_turns_total",
			Help: "Number of simulated hours.",
		}),
		blackouts: f.NewCounter(prometheus.CounterOpts{
			Name: "smartgrid_blackout_turns_total",
			Help: "Number of hours where production fell short of demand.",
		}),
		unmet: f.NewCounter(prometheus.CounterOpts{
			Name: "smartgrid_unmet_mwh_total",
			Help: "Demand left unserved, in MWh.",
		}),
		wasted: f.NewCounter(prometheus.CounterOpts{
			Name: "smartgrid_wasted_mwh_total",
			Help: "Production above demand, in MWh.",
		}),
		reward: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartgrid_turn_reward",
			Help:    "Reward of each turn.",
			Buckets: []float64{-100000, -30000, -10000, -3000, -1000, -300, -100, 0},
		}),
		score: f.NewGauge(prometheus.GaugeOpts{
			Name: "smartgrid_episode_score",
			Help: "Cumulative reward of the running episode.",
		}),
		turn: f.NewGauge(prometheus.GaugeOpts{
			Name: "smartgrid_episode_turn",
			Help: "Turn of the running episode.",
		}),
		generation: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartgrid_plant_output_mw",
			Help: "Current output of each plant.",
		}, []string{"plant", "category"}),
		demand: f.NewGauge(prometheus.GaugeOpts{
			Name: "smartgrid_demand_mw",
			Help: "Current total consumer demand.",
		}),
	}
}

func (c *Collector) OnReset(e env.ResetEvent) {
	c.episodes.Inc()
	c.score.Set(0)
	c.observe(e.Info)
}

func (c *Collector) OnTurn(e env.TurnEvent) {
	info := e.Result.Info
	c.turns.Inc()
	if info.IsBlackout {
		c.blackouts.Inc()
	}
	c.unmet.Add(info.Balance.UnmetDemand)
	c.wasted.Add(info.Balance.WastedEnergy)
	c.reward.Observe(e.Result.Reward)
	c.score.Set(info.Summary.Score)
	c.observe(info)
}

func (c *Collector) observe(info env.Info) {
	c.turn.Set(float64(info.Turn))
	c.demand.Set(info.CurrentDemand)
	for _, p := range info.Plants {
		c.generation.WithLabelValues(p.Key, string(p.Category)).Set(p.Output)
	}
}
