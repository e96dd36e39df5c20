package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pidlab/internal/storage"
)

func TestPlotFile(t *testing.T) {
	dir := t.TempDir()
	x := []float64{0, 1, 2, 3}

	for _, name := range []string{"run.png", "run.svg"} {
		path := filepath.Join(dir, name)
		err := PlotFile(path, "thermal", "temperature",
			Series{Name: "measured", X: x, Y: []float64{20, 40, 55, 59}},
			Series{Name: "target", X: x, Y: []float64{60, 60, 60, 60}},
		)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestPlotFileSkipsNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u.png")
	err := PlotFile(path, "control", "u",
		Series{Name: "u", X: []float64{0, 1, 2}, Y: []float64{1, math.Inf(1), 2}},
	)
	if err != nil {
		t.Fatal(err)
	}

	err = PlotFile(path, "control", "u",
		Series{Name: "u", X: []float64{0}, Y: []float64{math.NaN()}},
	)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("got %v, want ErrNoData", err)
	}
}

func TestSiblingPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"run.png", "run_control.png"},
		{"out/run.svg", "out/run_control.svg"},
		{"plain", "plain_control"},
	}
	for _, tt := range tests {
		if got := SiblingPath(tt.in, "control"); got != tt.want {
			t.Errorf("SiblingPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	meta := &storage.RunMetadata{ID: "thermal_1", Plant: "thermal"}
	trace := &storage.Trace{
		Times:    []float64{0, 0.5},
		Dts:      []float64{0.5},
		States:   [][]float64{{20}, {21}},
		Controls: [][]float64{{math.Inf(-1)}},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, meta, trace); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		ID       string            `json:"id"`
		Plant    string            `json:"plant"`
		States   [][]float64       `json:"states"`
		Controls [][]storage.Float `json:"controls"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != "thermal_1" || decoded.Plant != "thermal" {
		t.Errorf("metadata not embedded: %+v", decoded)
	}
	if len(decoded.States) != 2 || decoded.States[1][0] != 21 {
		t.Errorf("states = %v", decoded.States)
	}
	if !math.IsInf(float64(decoded.Controls[0][0]), -1) {
		t.Errorf("control = %v, want -Inf", decoded.Controls[0][0])
	}
}
