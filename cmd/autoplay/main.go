package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"grid_simulator/internal/config"
	"grid_simulator/internal/dispatch"
	"grid_simulator/internal/env"
	"grid_simulator/internal/model"
	"grid_simulator/internal/sessionlog"
)

type result struct {
	episode model.Episode
	summary env.Summary
}

// options are the command-line settings of one autoplay run.
type options struct {
	seed       uint64
	random     bool
	episodes   int
	controller string
	reserve    float64
	logDir     string
	verbose    bool
}

func main() {
	configFile := flag.String("config", "", "config file (default: config.yaml in . or ./config)")
	var opts options
	flag.Uint64Var(&opts.seed, "seed", 1, "seed of the first episode; later episodes use seed+1, seed+2, ...")
	flag.BoolVar(&opts.random, "random", false, "draw a random seed for every episode")
	flag.IntVar(&opts.episodes, "episodes", 1, "number of episodes to play")
	flag.StringVar(&opts.controller, "controller", "merit-order", "controller: merit-order, idle or full")
	flag.Float64Var(&opts.reserve, "reserve", 0.05, "merit-order spinning reserve as a fraction of net demand")
	flag.StringVar(&opts.logDir, "log-dir", "", "write autoplay session logs to this directory")
	flag.BoolVar(&opts.verbose, "v", false, "print every turn")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalf("Invalid log config: %v", err)
	}
	scenario, err := config.BuildScenario(cfg.Scenario)
	if err != nil {
		logger.Fatalf("Failed to build scenario: %v", err)
	}

	if err := run(scenario, opts, os.Stdout, os.Stderr, logger); err != nil {
		logger.Fatal(err)
	}
}

// run plays the requested episodes and prints the results table to out.
func run(scenario model.Scenario, opts options, out, progress io.Writer, logger *logrus.Logger) error {
	ctrl, err := newController(opts.controller, scenario, opts.reserve)
	if err != nil {
		return err
	}

	var callbacks env.Callbacks
	if opts.logDir != "" {
		w, err := sessionlog.Open(opts.logDir, "autoplay", time.Now(), logger)
		if err != nil {
			return fmt.Errorf("session log: %w", err)
		}
		defer w.Close()
		logger.Infof("Logging turns to %s", w.Path())
		callbacks = append(callbacks, w)
	}

	e, err := env.New(scenario, callbacks)
	if err != nil {
		return err
	}

	var turnOut io.Writer = io.Discard
	if opts.verbose {
		turnOut = out
	}

	results := make([]result, 0, opts.episodes)
	for i := 0; i < opts.episodes; i++ {
		var obs env.Observation
		var info env.Info
		if opts.random {
			obs, info, err = e.ResetRandom()
		} else {
			obs, info, err = e.Reset(opts.seed + uint64(i))
		}
		if err != nil {
			return err
		}
		summary, err := play(e, ctrl, obs, info, turnOut)
		if err != nil {
			return fmt.Errorf("episode %d: %w", i+1, err)
		}
		results = append(results, result{episode: e.Episode(), summary: summary})
		fmt.Fprintf(progress, "  episode %d (seed %d) done\n", i+1, info.Seed)
	}

	printTable(out, scenario, ctrl.Name(), results)
	return nil
}

func newController(name string, s model.Scenario, reserve float64) (dispatch.Controller, error) {
	n := len(s.Controllable())
	switch name {
	case "merit-order":
		return dispatch.NewMeritOrder(s, reserve), nil
	case "idle":
		return dispatch.Constant{Action: make([]float64, n)}, nil
	case "full":
		full := make([]float64, n)
		for i := range full {
			full[i] = 1
		}
		return dispatch.Constant{Action: full}, nil
	default:
		return nil, fmt.Errorf("unknown controller %q", name)
	}
}

// play runs ctrl until the episode is truncated and returns its summary.
func play(e *env.Environment, ctrl dispatch.Controller, obs env.Observation, info env.Info, out io.Writer) (env.Summary, error) {
	fmt.Fprintf(out, "\n %4s │ %4s │ %-24s │ %9s │ %9s │ %10s │ %10s │ %s\n",
		"Turn", "Hour", "Action", "Supply", "Demand", "Reward", "Score", "Blackout")
	fmt.Fprintf(out, "──────┼──────┼──────────────────────────┼───────────┼───────────┼────────────┼────────────┼─────────\n")

	for {
		action := ctrl.Act(obs, info)
		res, err := e.Step(action)
		if err != nil {
			return env.Summary{}, err
		}
		obs, info = res.Observation, res.Info

		blackout := ""
		if info.IsBlackout {
			blackout = "yes"
		}
		fmt.Fprintf(out, " %4d │ %4d │ %-24s │ %6.1f MW │ %6.1f MW │ %10.1f │ %10.1f │ %s\n",
			info.Turn, info.Hour, formatAction(action),
			info.Balance.TotalProduction, info.Balance.TotalDemand,
			res.Reward, info.Summary.Score, blackout)

		if res.Terminated || res.Truncated {
			return info.Summary, nil
		}
	}
}

// formatAction renders an action rounded to two decimals.
func formatAction(action []float64) string {
	rounded := make([]float64, len(action))
	for i, a := range action {
		rounded[i] = math.Round(a*100) / 100
	}
	return sessionlog.FormatActions(rounded)
}

func printTable(out io.Writer, s model.Scenario, controller string, results []result) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Autoplay Results")
	fmt.Fprintf(out, "  Scenario: %s, controller: %s, %d turns per episode\n", s.Name, controller, s.EpisodeLength)
	fmt.Fprintln(out)

	fmt.Fprintf(out, " %20s │ %12s │ %12s │ %10s │ %9s │ %10s │ %10s\n",
		"Seed", "Score", "Cost", "Emissions", "Blackouts", "Unmet", "Wasted")
	fmt.Fprintf(out, "──────────────────────┼──────────────┼──────────────┼────────────┼───────────┼────────────┼────────────\n")

	var total float64
	for _, r := range results {
		sum := r.summary
		total += sum.Score
		fmt.Fprintf(out, " %20d │ %12.1f │ %12.1f │ %10.2f │ %9d │ %6.1f MWh │ %6.1f MWh\n",
			r.episode.Seed, sum.Score, sum.TotalCost, sum.TotalEmissions, sum.BlackoutTurns, sum.UnmetMWh, sum.WastedMWh)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Mean score: %.1f\n", total/float64(len(results)))
	fmt.Fprintln(out)
}
