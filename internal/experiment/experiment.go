package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/sim"
)

var ErrNotSetup = errors.New("experiment: not setup")

type Config struct {
	Plant      string
	Integrator string
	Controller string
	InitState  []float64
	Dt         float64
	Duration   float64
	Seed       int64
	Jitter     float64
	Params     map[string]float64
}

type Experiment struct {
	cfg        Config
	simulator  *sim.Simulator
	system     dynamo.System
	controller dynamo.Controller
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Experiment {
	return &Experiment{
		cfg:    cfg,
		logger: logger,
	}
}

func (e *Experiment) Setup(sys dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller, metrics []dynamo.Metric) error {
	e.system = sys
	e.controller = controller
	e.simulator = sim.New(sys, integrator, controller, e.logger)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) simConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Seed:          e.cfg.Seed,
		Jitter:        e.cfg.Jitter,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}
	return e.simulator.Run(ctx, dynamo.State(e.cfg.InitState), e.simConfig())
}

// Start opens a tick-by-tick session for interactive use.
func (e *Experiment) Start() (*sim.Session, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}
	return e.simulator.Start(dynamo.State(e.cfg.InitState), e.simConfig())
}

func (e *Experiment) Config() Config { return e.cfg }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

// Controller returns the controller driving the loop.
func (e *Experiment) Controller() dynamo.Controller { return e.controller }

// System returns the simulated plant.
func (e *Experiment) System() dynamo.System { return e.system }

// FromConfig validates cfg and builds a ready-to-run experiment from the
// registry.
func (r *Registry) FromConfig(cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sys, err := r.GetPlant(cfg.Plant)
	if err != nil {
		return nil, err
	}
	if len(cfg.PlantParams) > 0 {
		tunable, ok := sys.(dynamo.Configurable)
		if !ok {
			return nil, fmt.Errorf("experiment: plant %s has no tunable parameters", cfg.Plant)
		}
		for name, value := range cfg.PlantParams {
			if err := tunable.SetParam(name, value); err != nil {
				return nil, err
			}
		}
	}

	integ, err := r.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	params := cfg.ControllerParams(sys.ControlDim())
	ctrl, err := r.GetController(cfg.Controller, params)
	if err != nil {
		return nil, err
	}

	exp := New(Config{
		Plant:      cfg.Plant,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		InitState:  cfg.InitState(sys.StateDim()),
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Seed:       cfg.Seed,
		Jitter:     cfg.Jitter,
		Params:     params,
	}, logger)

	if err := exp.Setup(sys, integ, ctrl, r.DefaultMetrics(cfg.Target, 0)); err != nil {
		return nil, err
	}
	return exp, nil
}
