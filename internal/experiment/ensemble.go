package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
)

// Ensemble runs cfg once per seed from cfg.Seed to cfg.Seed+runs-1, at most
// workers at a time. Each run gets its own plant and controller, so the
// jitter sequence is the only difference between runs.
func (r *Registry) Ensemble(ctx context.Context, cfg *config.Config, runs, workers int, logger *slog.Logger) ([]*dynamo.Result, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run, got %d", config.ErrInvalid, runs)
	}

	results := make([]*dynamo.Result, runs)
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := 0; i < runs; i++ {
		g.Go(func() error {
			c := *cfg
			c.Seed = cfg.Seed + int64(i)

			exp, err := r.FromConfig(&c, logger)
			if err != nil {
				return err
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("seed %d: %w", c.Seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary describes one metric across an ensemble. Non-finite values are
// counted in Dropped and left out of the statistics.
type Summary struct {
	Name     string
	N        int
	Dropped  int
	Mean     float64
	StdDev   float64
	Min, Max float64
}

// Summarize aggregates the metrics of results by name, sorted by name.
func Summarize(results []*dynamo.Result) []Summary {
	values := make(map[string][]float64)
	dropped := make(map[string]int)
	for _, res := range results {
		for name, v := range res.Metrics {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				dropped[name]++
				if _, ok := values[name]; !ok {
					values[name] = nil
				}
				continue
			}
			values[name] = append(values[name], v)
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		v := values[name]
		s := Summary{Name: name, N: len(v), Dropped: dropped[name]}
		if len(v) > 0 {
			s.Min, s.Max = floats.Min(v), floats.Max(v)
			if len(v) > 1 {
				s.Mean, s.StdDev = stat.MeanStdDev(v, nil)
			} else {
				s.Mean = v[0]
			}
		}
		out = append(out, s)
	}
	return out
}
