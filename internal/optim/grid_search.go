package optim

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrNoCandidate = errors.New("optim: no candidate produced a finite score")

// Gains is one point of the search grid.
type Gains struct {
	Kp, Ti, Td float64
}

// Best is the winning point and its score.
type Best struct {
	Gains     Gains
	Score     float64
	Evaluated int
	Failed    int
}

// EvalFunc scores one candidate; lower is better. It is called from
// several goroutines at once.
type EvalFunc func(ctx context.Context, g Gains) (float64, error)

// GridSearch evaluates every combination of Kp, Ti and Td.
type GridSearch struct {
	Kp      []float64
	Ti      []float64
	Td      []float64
	Workers int
}

func NewGridSearch(kp, ti, td []float64) *GridSearch {
	return &GridSearch{Kp: kp, Ti: ti, Td: td, Workers: runtime.GOMAXPROCS(0)}
}

// Candidates returns the grid in Kp-major order.
func (g *GridSearch) Candidates() []Gains {
	out := make([]Gains, 0, len(g.Kp)*len(g.Ti)*len(g.Td))
	for _, kp := range g.Kp {
		for _, ti := range g.Ti {
			for _, td := range g.Td {
				out = append(out, Gains{Kp: kp, Ti: ti, Td: td})
			}
		}
	}
	return out
}

// Search scores every candidate and returns the lowest finite score. A
// candidate whose evaluation fails or scores NaN/Inf is counted in
// Best.Failed and skipped. Ties go to the earlier candidate.
func (g *GridSearch) Search(ctx context.Context, eval EvalFunc) (Best, error) {
	candidates := g.Candidates()
	scores := make([]float64, len(candidates))

	grp, ctx := errgroup.WithContext(ctx)
	if g.Workers > 0 {
		grp.SetLimit(g.Workers)
	}

	var mu sync.Mutex
	failed := 0

	for i, c := range candidates {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := eval(ctx, c)
			if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
				mu.Lock()
				failed++
				mu.Unlock()
				score = math.NaN()
			}
			scores[i] = score
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return Best{}, err
	}

	best := Best{Score: math.Inf(1), Evaluated: len(candidates), Failed: failed}
	found := false
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if s < best.Score {
			best.Score = s
			best.Gains = candidates[i]
			found = true
		}
	}
	if !found {
		return best, ErrNoCandidate
	}
	return best, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
