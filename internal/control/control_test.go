package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/pid"
)

func TestNone(t *testing.T) {
	ctrl := NewNone(2)
	u := ctrl.Compute(dynamo.State{1.0, 2.0}, 0.0, 0.01)

	if len(u) != 2 {
		t.Errorf("expected 2 controls, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}
}

func TestLoopError(t *testing.T) {
	loop := NewLoop(pid.New(2, 0, 0), 10, 1)

	u := loop.Compute(dynamo.State{100, 4}, 0, 0.1)
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] != 12 {
		t.Errorf("got %v, want 12", u[0])
	}
}

func TestLoopMatchesController(t *testing.T) {
	loop := NewLoop(pid.New(1.2, 0.7, 0.05), 1, 0)
	ref := pid.New(1.2, 0.7, 0.05)

	measurements := []float64{0, 0.2, 0.5, 0.9, 1.1, 1.05}
	dts := []float64{0.1, 0.1, 0.12, 0.08, 0.1, 0.1}

	for i, m := range measurements {
		got := loop.Compute(dynamo.State{m}, 0, dts[i])[0]
		want := ref.Calculate(1-m, dts[i])
		if got != want {
			t.Errorf("tick %d: got %v, want %v", i, got, want)
		}
	}
}

func TestLoopShortState(t *testing.T) {
	loop := NewLoop(pid.New(1, 1, 1), 1, 3)
	u := loop.Compute(dynamo.State{0}, 0, 0.1)
	if len(u) != 1 || u[0] != 0 {
		t.Errorf("got %v, want [0]", u)
	}
	if loop.PID.Integral() != 0 {
		t.Error("short state must not advance the controller")
	}
}

func TestLoopReset(t *testing.T) {
	loop := NewLoop(pid.New(1, 1, 0), 5, 0)
	loop.Compute(dynamo.State{0}, 0, 1)
	if loop.PID.Integral() == 0 {
		t.Fatal("expected integral to accumulate")
	}

	var r dynamo.Resetter = loop
	r.Reset()
	if loop.PID.Integral() != 0 || loop.PID.PrevError() != 0 {
		t.Error("reset did not clear controller state")
	}
}

func TestLoopParams(t *testing.T) {
	var c dynamo.Configurable = NewLoop(pid.New(1, 2, 3), 4, 0)

	params := c.GetParams()
	want := map[string]float64{"kp": 1, "ti": 2, "td": 3, "target": 4}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("%s = %v, want %v", k, params[k], v)
		}
	}

	if err := c.SetParam("target", 7); err != nil {
		t.Fatal(err)
	}
	if err := c.SetParam("kp", 0.5); err != nil {
		t.Fatal(err)
	}
	if got := c.GetParams(); got["target"] != 7 || got["kp"] != 0.5 {
		t.Errorf("params after set = %v", got)
	}

	if err := c.SetParam("ki", 1); !errors.Is(err, pid.ErrUnknownParam) {
		t.Errorf("SetParam(ki) = %v, want ErrUnknownParam", err)
	}
}

func TestLoopZeroDt(t *testing.T) {
	loop := NewLoop(pid.New(1, 0, 0.5), 1, 0)
	u := loop.Compute(dynamo.State{0}, 0, 0)
	if !math.IsInf(u[0], 0) && !math.IsNaN(u[0]) {
		t.Errorf("got %v, want non-finite", u[0])
	}
}

func TestManual(t *testing.T) {
	m := NewManual(2, 1.5)

	u := m.Compute(dynamo.State{3}, 0, 0.1)
	if len(u) != 2 || u[0] != 1.5 || u[1] != 1.5 {
		t.Fatalf("got %v, want [1.5 1.5]", u)
	}

	// returned control is a copy
	u[0] = 99
	if m.U[0] != 1.5 {
		t.Error("Compute exposed internal control")
	}

	if err := m.SetParam("u", -2); err != nil {
		t.Fatal(err)
	}
	if got := m.GetParams()["u"]; got != -2 {
		t.Errorf("got %v, want -2", got)
	}
	if err := m.SetParam("kp", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("got %v, want ErrUnknownParam", err)
	}
}
