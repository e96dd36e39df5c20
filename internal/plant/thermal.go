package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	DefaultAmbient  = 20.0
	DefaultTau      = 60.0
	DefaultHeatGain = 1.0
)

// Thermal is a first-order lag: Tau dT/dt = Ambient - T + Gain*u.
type Thermal struct {
	Ambient float64
	Tau     float64
	Gain    float64
}

func NewThermal() *Thermal {
	return &Thermal{
		Ambient: DefaultAmbient,
		Tau:     DefaultTau,
		Gain:    DefaultHeatGain,
	}
}

func (p *Thermal) StateDim() int   { return 1 }
func (p *Thermal) ControlDim() int { return 1 }

func (p *Thermal) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{(p.Ambient - x[0] + p.Gain*input(u)) / p.Tau}
}

func (p *Thermal) GetParams() map[string]float64 {
	return map[string]float64{
		"ambient": p.Ambient,
		"tau":     p.Tau,
		"gain":    p.Gain,
	}
}

func (p *Thermal) SetParam(name string, value float64) error {
	switch name {
	case "ambient":
		p.Ambient = value
	case "tau":
		p.Tau = value
	case "gain":
		p.Gain = value
	default:
		return fmt.Errorf("thermal: %w: %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}

// input returns the first control component, or zero for an empty vector.
func input(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}
