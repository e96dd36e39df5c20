package export

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("export: no finite data to plot")

const (
	plotWidth  = 20 * vg.Centimeter
	plotHeight = 10 * vg.Centimeter
)

// Series is one named line of a plot.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// PlotFile renders series against time into path. The image format follows
// the file extension (.png, .svg, .pdf, ...). Non-finite samples are left
// out of the line.
func PlotFile(path, title, yLabel string, series ...Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, s := range series {
		xy := finiteXYs(s.X, s.Y)
		if len(xy) == 0 {
			continue
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("export: series %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("export: could not save plot: %w", err)
	}
	return nil
}

func finiteXYs(x, y []float64) plotter.XYs {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xy := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if !finite(x[i]) || !finite(y[i]) {
			continue
		}
		xy = append(xy, plotter.XY{X: x[i], Y: y[i]})
	}
	return xy
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SiblingPath inserts suffix before the extension of path:
// SiblingPath("run.png", "control") is "run_control.png".
func SiblingPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext
}
