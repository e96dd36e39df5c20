package plant

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	DefaultInertia  = 0.01
	DefaultFriction = 0.1
	DefaultTorqueK  = 0.05
)

// Motor models shaft speed of a DC motor driven by voltage u:
// J dω/dt = K*u - B*ω - Load.
type Motor struct {
	J    float64
	B    float64
	K    float64
	Load float64
}

func NewMotor() *Motor {
	return &Motor{
		J: DefaultInertia,
		B: DefaultFriction,
		K: DefaultTorqueK,
	}
}

func (m *Motor) StateDim() int   { return 1 }
func (m *Motor) ControlDim() int { return 1 }

func (m *Motor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	torque := m.K*input(u) - m.B*x[0] - m.Load
	return dynamo.State{torque / m.J}
}

func (m *Motor) GetParams() map[string]float64 {
	return map[string]float64{
		"j":    m.J,
		"b":    m.B,
		"k":    m.K,
		"load": m.Load,
	}
}

func (m *Motor) SetParam(name string, value float64) error {
	switch name {
	case "j":
		m.J = value
	case "b":
		m.B = value
	case "k":
		m.K = value
	case "load":
		m.Load = value
	default:
		return fmt.Errorf("motor: %w: %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}
