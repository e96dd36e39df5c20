package integrators

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	a2, a3, a4, a5 = 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0

	b21           = 1.0 / 5.0
	b31, b32      = 3.0 / 40.0, 9.0 / 40.0
	b41, b42, b43 = 44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0

	b51, b52, b53, b54      = 19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0
	b61, b62, b63, b64, b65 = 9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0

	c1, c3, c4, c5, c6 = 35.0 / 384.0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0

	// fifth-order minus embedded fourth-order weights
	e1 = c1 - 5179.0/57600.0
	e3 = c3 - 7571.0/16695.0
	e4 = c4 - 393.0/640.0
	e5 = c5 + 92097.0/339200.0
	e6 = c6 - 187.0/2100.0
	e7 = -1.0 / 40.0
)

// RK45 covers each control interval with as many Dormand-Prince substeps as
// the tolerance needs. The control is held for the whole interval. The last
// accepted substep length seeds the next call.
type RK45 struct {
	Tol      float64
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
	h        float64

	k           [7]dynamo.State
	stage, next dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:      1e-6,
		MaxSteps: 1000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.stage = make(dynamo.State, n)
		r.next = make(dynamo.State, n)
	}
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.ensureScratch(len(x))

	cur := x.Clone()
	h := r.h
	if h <= 0 || h > dt {
		h = dt
	}

	remaining := dt
	for i := 0; remaining > 0 && i < r.MaxSteps; i++ {
		last := h >= remaining
		if last {
			h = remaining
		}

		ratio := r.attempt(sys, cur, u, t, h)
		if ratio <= 1 || math.IsNaN(ratio) {
			copy(cur, r.next)
			t += h
			if last {
				remaining = 0
			} else {
				remaining -= h
			}
			if math.IsNaN(ratio) {
				break
			}
		}
		h *= r.scale(ratio)
	}

	if remaining > 0 && !math.IsNaN(remaining) {
		r.attempt(sys, cur, u, t, remaining)
		copy(cur, r.next)
	}

	if h > 0 && !math.IsInf(h, 0) {
		r.h = h
	}
	return cur
}

// attempt takes one substep of length h from x into r.next and returns
// the error estimate relative to the tolerance.
func (r *RK45) attempt(sys dynamo.System, x dynamo.State, u dynamo.Control, t, h float64) float64 {
	n := len(x)
	k := &r.k

	copy(k[0], sys.Derive(x, u, t))

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*b21*k[0][i]
	}
	copy(k[1], sys.Derive(r.stage, u, t+a2*h))

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*(b31*k[0][i]+b32*k[1][i])
	}
	copy(k[2], sys.Derive(r.stage, u, t+a3*h))

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*(b41*k[0][i]+b42*k[1][i]+b43*k[2][i])
	}
	copy(k[3], sys.Derive(r.stage, u, t+a4*h))

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*(b51*k[0][i]+b52*k[1][i]+b53*k[2][i]+b54*k[3][i])
	}
	copy(k[4], sys.Derive(r.stage, u, t+a5*h))

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*(b61*k[0][i]+b62*k[1][i]+b63*k[2][i]+b64*k[3][i]+b65*k[4][i])
	}
	copy(k[5], sys.Derive(r.stage, u, t+h))

	for i := 0; i < n; i++ {
		r.next[i] = x[i] + h*(c1*k[0][i]+c3*k[2][i]+c4*k[3][i]+c5*k[4][i]+c6*k[5][i])
	}
	copy(k[6], sys.Derive(r.next, u, t+h))

	worst := 0.0
	for i := 0; i < n; i++ {
		est := h * (e1*k[0][i] + e3*k[2][i] + e4*k[3][i] + e5*k[4][i] + e6*k[5][i] + e7*k[6][i])
		tol := r.Tol * (1 + math.Max(math.Abs(x[i]), math.Abs(r.next[i])))
		ratio := math.Abs(est) / tol
		if math.IsNaN(ratio) {
			return ratio
		}
		worst = math.Max(worst, ratio)
	}
	return worst
}

func (r *RK45) scale(ratio float64) float64 {
	switch {
	case math.IsNaN(ratio):
		return r.minScale
	case ratio == 0:
		return r.maxScale
	}
	s := r.safety * math.Pow(ratio, -0.2)
	return math.Min(r.maxScale, math.Max(r.minScale, s))
}
