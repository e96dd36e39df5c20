package sim

import (
	"math/rand"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// Tick is the outcome of one control interval.
type Tick struct {
	Step    int
	Time    float64 // time at the end of the tick
	Dt      float64
	State   dynamo.State
	Control dynamo.Control
}

// Session advances a simulation one tick at a time. It is not safe for
// concurrent use.
type Session struct {
	sim  *Simulator
	cfg  dynamo.Config
	rng  *rand.Rand
	x    dynamo.State
	t    float64
	step int
}

func (ss *Session) State() dynamo.State { return ss.x.Clone() }
func (ss *Session) Time() float64       { return ss.t }

// Step computes the control for the current state, feeds metrics and
// observers, and integrates the plant over one tick. If the plant state
// becomes invalid the session is left unchanged and a *dynamo.StepError
// wrapping dynamo.ErrInvalidState is returned.
func (ss *Session) Step() (Tick, error) {
	s := ss.sim
	dt := ss.tickLength()

	u := s.controller.Compute(ss.x, ss.t, dt)

	for _, m := range s.metrics {
		m.Observe(ss.x, u, ss.t)
	}
	for _, obs := range s.observers {
		obs.OnStep(ss.x, u, ss.t)
	}

	next := s.integrator.Step(s.sys, ss.x, u, ss.t, dt)
	if ss.cfg.ValidateState && !next.IsValid() {
		return Tick{}, &dynamo.StepError{
			Step:    ss.step,
			Time:    ss.t,
			Control: u.Clone(),
			Wrapped: dynamo.ErrInvalidState,
		}
	}

	ss.x = next
	ss.t += dt
	ss.step++

	return Tick{
		Step:    ss.step,
		Time:    ss.t,
		Dt:      dt,
		State:   next.Clone(),
		Control: u.Clone(),
	}, nil
}

func (ss *Session) tickLength() float64 {
	if ss.cfg.Jitter == 0 {
		return ss.cfg.Dt
	}
	return ss.cfg.Dt * (1 + ss.cfg.Jitter*(2*ss.rng.Float64()-1))
}
