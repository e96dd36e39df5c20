package main

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/viz"
)

var (
	kpGrid     []float64
	tiGrid     []float64
	tdGrid     []float64
	gridPoints int
	workers    int
	saveConfig string
)

func addTuneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&kpGrid, "kp-grid", nil, "kp candidates (default: spread around kp)")
	cmd.Flags().Float64SliceVar(&tiGrid, "ti-grid", nil, "ti candidates (default: spread around ti)")
	cmd.Flags().Float64SliceVar(&tdGrid, "td-grid", nil, "td candidates (default: spread around td)")
	cmd.Flags().IntVar(&gridPoints, "points", 6, "default grid points per gain")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "parallel evaluations")
	cmd.Flags().StringVar(&saveConfig, "save", "", "write the tuned config to this yaml file")
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Controller != "pid" {
		return fmt.Errorf("tune needs the pid controller, config has %q", cfg.Controller)
	}

	search := optim.NewGridSearch(
		orDefault(kpGrid, cfg.Gains.Kp, gridPoints),
		orDefault(tiGrid, cfg.Gains.Ti, gridPoints),
		orDefault(tdGrid, cfg.Gains.Td, gridPoints),
	)
	search.Workers = workers

	registry := experiment.NewRegistry()
	logger.Info("tuning", "plant", cfg.Plant, "candidates", len(search.Candidates()), "workers", workers)

	best, err := search.Search(cmd.Context(), func(ctx context.Context, g optim.Gains) (float64, error) {
		return score(ctx, registry, cfg, g)
	})
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("best gains for " + cfg.Plant))
	fmt.Println(viz.Field("kp ", best.Gains.Kp))
	fmt.Println(viz.Field("ti ", best.Gains.Ti))
	fmt.Println(viz.Field("td ", best.Gains.Td))
	fmt.Println(viz.Field("iae", best.Score))
	if best.Failed > 0 {
		fmt.Println(viz.Warn.Render(fmt.Sprintf("%d of %d candidates diverged", best.Failed, best.Evaluated)))
	}

	if saveConfig != "" {
		cfg.Gains = config.GainsConfig{Kp: best.Gains.Kp, Ti: best.Gains.Ti, Td: best.Gains.Td}
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
		logger.Info("saved config", "path", saveConfig)
	}
	return nil
}

// score runs one candidate and returns its integrated absolute error. Runs
// that stop early or emit non-finite control score +Inf.
func score(ctx context.Context, registry *experiment.Registry, base *config.Config, g optim.Gains) (float64, error) {
	cfg := *base
	cfg.Gains = config.GainsConfig{Kp: g.Kp, Ti: g.Ti, Td: g.Td}

	exp, err := registry.FromConfig(&cfg, nil)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	if len(result.Errors) > 0 || result.Metrics["non_finite_controls"] > 0 {
		return math.Inf(1), nil
	}
	return result.Metrics["iae"], nil
}

// orDefault returns grid, or n points from v/4 to 2v when grid is empty.
// A zero gain stays fixed at zero.
func orDefault(grid []float64, v float64, n int) []float64 {
	if len(grid) > 0 {
		return grid
	}
	if v == 0 {
		return []float64{0}
	}
	return optim.Linspace(v/4, 2*v, n)
}
