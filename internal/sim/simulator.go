package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// Simulator closes a loop between a controller and a simulated plant. It
// plays the part of the sampling loop: it owns the clock and supplies every
// controller call with the elapsed dt.
type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func New(sys dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     logger,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run executes Duration/Dt ticks from x0. A tick that leaves the plant in
// an invalid state ends the run early; the error is recorded in
// Result.Errors rather than returned.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	sess, err := s.Start(x0, cfg)
	if err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Dts:      make([]float64, 0, steps),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.States = append(result.States, sess.State())
	result.Times = append(result.Times, sess.Time())

	s.logger.Debug("run started", "steps", steps, "dt", cfg.Dt, "jitter", cfg.Jitter, "seed", cfg.Seed)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		tick, err := sess.Step()
		if err != nil {
			result.Errors = append(result.Errors, err)
			s.logger.Warn("run stopped", "err", err)
			break
		}

		result.StepsTaken++
		result.States = append(result.States, tick.State)
		result.Controls = append(result.Controls, tick.Control)
		result.Times = append(result.Times, tick.Time)
		result.Dts = append(result.Dts, tick.Dt)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("run complete", "steps", result.StepsTaken, "t", sess.Time(), "errors", len(result.Errors))

	return result, nil
}

// Start validates cfg, resets the controller and returns a session
// positioned at x0, t=0.
func (s *Simulator) Start(x0 dynamo.State, cfg dynamo.Config) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, system has %d",
			dynamo.ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}

	if r, ok := s.controller.(dynamo.Resetter); ok {
		r.Reset()
	}

	return &Session{
		sim: s,
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		x:   x0.Clone(),
	}, nil
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return fmt.Errorf("%w: jitter must be in [0, 1), got %f", dynamo.ErrInvalidConfig, cfg.Jitter)
	}
	return nil
}
