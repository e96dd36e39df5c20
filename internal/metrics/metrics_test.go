package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/dynamo"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Errorf("empty effort = %v, want 0", m.Value())
	}

	m.Observe(nil, dynamo.Control{2}, 0)
	m.Observe(nil, dynamo.Control{-4}, 0.1)
	if m.Value() != 3 {
		t.Errorf("effort = %v, want 3", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestNonFinite(t *testing.T) {
	m := NewNonFinite()
	m.Observe(nil, dynamo.Control{1}, 0)
	m.Observe(nil, dynamo.Control{math.Inf(-1)}, 0)
	m.Observe(nil, dynamo.Control{math.NaN()}, 0)

	if m.Value() != 2 {
		t.Errorf("count = %v, want 2", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero count after reset")
	}
}

func TestIAE(t *testing.T) {
	m := NewIAE(1, 0)

	// constant error of 1 for 2 seconds
	for i := 0; i <= 20; i++ {
		m.Observe(dynamo.State{0}, nil, float64(i)*0.1)
	}
	if math.Abs(m.Value()-2) > 1e-9 {
		t.Errorf("iae = %v, want 2", m.Value())
	}

	m.Reset()
	m.Observe(dynamo.State{0}, nil, 0)
	if m.Value() != 0 {
		t.Errorf("single sample iae = %v, want 0", m.Value())
	}
}

func TestIAEAbsolute(t *testing.T) {
	m := NewIAE(0, 0)
	m.Observe(dynamo.State{1}, nil, 0)
	m.Observe(dynamo.State{-1}, nil, 1)
	if m.Value() != 1 {
		t.Errorf("iae = %v, want 1", m.Value())
	}
}

func TestErrorStdDev(t *testing.T) {
	m := NewErrorStdDev(0, 0)
	for i, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		m.Observe(dynamo.State{v}, nil, float64(i))
	}

	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("stddev = %v, want %v", m.Value(), want)
	}
}

func TestOvershoot(t *testing.T) {
	tests := []struct {
		name    string
		target  float64
		samples []float64
		want    float64
	}{
		{"rising with overshoot", 10, []float64{0, 5, 11, 12, 10}, 0.2},
		{"falling with overshoot", 0, []float64{4, 1, -1, 0}, 0.25},
		{"no overshoot", 10, []float64{0, 5, 9, 10}, 0},
		{"starts at target", 1, []float64{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewOvershoot(tt.target, 0)
			for i, v := range tt.samples {
				m.Observe(dynamo.State{v}, nil, float64(i))
			}
			if math.Abs(m.Value()-tt.want) > 1e-12 {
				t.Errorf("overshoot = %v, want %v", m.Value(), tt.want)
			}
		})
	}
}

func TestShortStateIgnored(t *testing.T) {
	ms := []dynamo.Metric{NewIAE(1, 2), NewErrorStdDev(1, 2), NewOvershoot(1, 2)}
	for _, m := range ms {
		m.Observe(dynamo.State{0}, nil, 0)
		m.Observe(dynamo.State{0}, nil, 1)
		if m.Value() != 0 {
			t.Errorf("%s = %v, want 0", m.Name(), m.Value())
		}
	}
}
