package control

import (
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/pid"
)

// Loop regulates state component Index towards Target with a PID law.
type Loop struct {
	PID    pid.Controller
	Target float64
	Index  int
}

func NewLoop(c pid.Controller, target float64, index int) *Loop {
	return &Loop{
		PID:    c,
		Target: target,
		Index:  index,
	}
}

func (l *Loop) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	if l.Index < 0 || l.Index >= len(x) {
		return dynamo.Control{0}
	}
	return dynamo.Control{l.PID.Calculate(l.Target-x[l.Index], dt)}
}

// Reset clears integral and derivative history.
func (l *Loop) Reset() {
	l.PID.Reset()
}

// GetParams returns the gains and target for live adjustment.
func (l *Loop) GetParams() map[string]float64 {
	params := l.PID.GetParams()
	params["target"] = l.Target
	return params
}

// SetParam adjusts a gain or the target.
func (l *Loop) SetParam(name string, value float64) error {
	if name == "target" {
		l.Target = value
		return nil
	}
	return l.PID.SetParam(name, value)
}
