package pid

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownParam is returned by SetParam for names other than kp, ti and td.
var ErrUnknownParam = errors.New("pid: unknown parameter")

// Controller holds the gains and the transient state of one PID loop.
// The zero value is a controller with all gains zero and clear state.
type Controller struct {
	kp float64
	ti float64 // 0 disables integral action
	td float64

	integral  float64 // running sum of error*dt
	prevError float64
}

func New(kp, ti, td float64) Controller {
	var c Controller
	c.SetGains(kp, ti, td)
	return c
}

// SetGains overwrites the gains. Integral and derivative history are kept.
func (c *Controller) SetGains(kp, ti, td float64) {
	c.kp = kp
	c.ti = ti
	c.td = td
}

// Reset clears the integral accumulator and the previous error.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
}

// Calculate advances the controller by one tick of length dt seconds and
// returns the control output for the error sample e.
//
// A NaN accumulator left by an earlier call is cleared before the new
// sample is applied. dt is not checked: zero yields a non-finite derivative
// term and therefore a non-finite output.
func (c *Controller) Calculate(e, dt float64) float64 {
	if math.IsNaN(c.integral) {
		c.Reset()
	}

	c.integral += e * dt

	integralTerm := 0.0
	if c.ti != 0 {
		integralTerm = (1.0 / c.ti) * c.integral
	}

	derivativeTerm := c.td * ((e - c.prevError) / dt)
	c.prevError = e

	return c.kp * (e + integralTerm - derivativeTerm)
}

func (c *Controller) Gains() (kp, ti, td float64) {
	return c.kp, c.ti, c.td
}

// Integral returns the accumulated error*dt.
func (c *Controller) Integral() float64 { return c.integral }

// PrevError returns the error passed to the most recent Calculate.
func (c *Controller) PrevError() float64 { return c.prevError }

// GetParams returns the gains keyed by name for live tuning.
func (c *Controller) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": c.kp,
		"ti": c.ti,
		"td": c.td,
	}
}

// SetParam sets a single gain by name. State is left untouched.
func (c *Controller) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		c.kp = value
	case "ti":
		c.ti = value
	case "td":
		c.td = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
