package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

const placeholder = "(no data)"

// Graph plots series with asciigraph. Non-finite samples are replaced with
// the previous finite sample; leading ones take the first finite sample.
// A series with no finite samples renders as a placeholder.
func Graph(series []float64, width, height int, caption string) string {
	data, ok := Finite(series)
	if !ok {
		return Hint.Render(placeholder)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
	}
	if caption != "" {
		opts = append(opts, asciigraph.Caption(caption))
	}
	return asciigraph.Plot(data, opts...)
}

// Finite returns a copy of series with every NaN or Inf replaced by the
// nearest earlier finite value. ok is false when nothing is finite.
func Finite(series []float64) (out []float64, ok bool) {
	first := -1
	for i, v := range series {
		if isFinite(v) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, false
	}

	out = make([]float64, len(series))
	last := series[first]
	for i, v := range series {
		if isFinite(v) {
			last = v
		}
		out[i] = last
	}
	return out, true
}

// Tail returns at most the last n values of series.
func Tail(series []float64, n int) []float64 {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
