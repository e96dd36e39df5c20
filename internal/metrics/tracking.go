package metrics

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// tracker records the tracking error of one state component over time.
type tracker struct {
	target float64
	index  int
	times  []float64
	errs   []float64
}

func (tr *tracker) observe(x dynamo.State, t float64) bool {
	if tr.index >= len(x) {
		return false
	}
	tr.times = append(tr.times, t)
	tr.errs = append(tr.errs, tr.target-x[tr.index])
	return true
}

func (tr *tracker) reset() {
	tr.times = tr.times[:0]
	tr.errs = tr.errs[:0]
}

// IAE is the integral of absolute tracking error, trapezoidal in time.
type IAE struct {
	tracker
	abs []float64
}

func NewIAE(target float64, index int) *IAE {
	return &IAE{tracker: tracker{target: target, index: index}}
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.observe(x, t) {
		m.abs = append(m.abs, math.Abs(m.errs[len(m.errs)-1]))
	}
}

func (m *IAE) Value() float64 {
	if len(m.times) < 2 {
		return 0
	}
	return integrate.Trapezoidal(m.times, m.abs)
}

func (m *IAE) Reset() {
	m.reset()
	m.abs = m.abs[:0]
}

// ErrorStdDev is the sample standard deviation of the tracking error.
type ErrorStdDev struct {
	tracker
}

func NewErrorStdDev(target float64, index int) *ErrorStdDev {
	return &ErrorStdDev{tracker: tracker{target: target, index: index}}
}

func (m *ErrorStdDev) Name() string { return "error_stddev" }

func (m *ErrorStdDev) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.observe(x, t)
}

func (m *ErrorStdDev) Value() float64 {
	if len(m.errs) < 2 {
		return 0
	}
	return stat.StdDev(m.errs, nil)
}

func (m *ErrorStdDev) Reset() { m.reset() }

// Overshoot is the largest excursion past the target, as a fraction of the
// distance between the first observed value and the target.
type Overshoot struct {
	target  float64
	index   int
	initial float64
	started bool
	maxPast float64
}

func NewOvershoot(target float64, index int) *Overshoot {
	return &Overshoot{target: target, index: index}
}

func (o *Overshoot) Name() string { return "overshoot" }

func (o *Overshoot) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if o.index >= len(x) {
		return
	}
	if !o.started {
		o.initial = o.target - x[o.index]
		o.started = true
		return
	}
	if o.initial == 0 {
		return
	}
	past := (x[o.index] - o.target) / o.initial
	if past > o.maxPast {
		o.maxPast = past
	}
}

func (o *Overshoot) Value() float64 {
	return o.maxPast
}

func (o *Overshoot) Reset() {
	o.initial = 0
	o.started = false
	o.maxPast = 0
}
