package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// ControlEffort is the mean absolute control over all observed ticks.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// NonFinite counts ticks whose control vector held NaN or Inf, which is
// what a PID law returns for a zero-length tick.
type NonFinite struct {
	count int
}

func NewNonFinite() *NonFinite {
	return &NonFinite{}
}

func (n *NonFinite) Name() string { return "non_finite_controls" }

func (n *NonFinite) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if !u.IsValid() {
		n.count++
	}
}

func (n *NonFinite) Value() float64 { return float64(n.count) }

func (n *NonFinite) Reset() { n.count = 0 }
