package control

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// Manual holds the actuator at a fixed output, as in an open-loop step
// test. The output can be moved while a run is in progress.
type Manual struct {
	U dynamo.Control
}

func NewManual(dim int, value float64) *Manual {
	u := make(dynamo.Control, dim)
	for i := range u {
		u[i] = value
	}
	return &Manual{U: u}
}

func (m *Manual) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	return m.U.Clone()
}

func (m *Manual) GetParams() map[string]float64 {
	if len(m.U) == 0 {
		return map[string]float64{"u": 0}
	}
	return map[string]float64{"u": m.U[0]}
}

// SetParam sets every output channel to value.
func (m *Manual) SetParam(name string, value float64) error {
	if name != "u" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	for i := range m.U {
		m.U[i] = value
	}
	return nil
}
