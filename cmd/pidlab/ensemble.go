package main

import (
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/viz"
)

var ensembleRuns int

func addEnsembleFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&ensembleRuns, "runs", 20, "number of seeds")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "parallel runs")
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Jitter == 0 {
		fmt.Println(viz.Warn.Render("jitter is 0: every seed runs the same loop"))
	}

	results, err := experiment.NewRegistry().Ensemble(cmd.Context(), cfg, ensembleRuns, workers, nil)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if len(res.Errors) > 0 {
			failed++
		}
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s: %d seeds from %d, jitter %g", cfg.Plant, ensembleRuns, cfg.Seed, cfg.Jitter)))
	if failed > 0 {
		fmt.Println(viz.Warn.Render(fmt.Sprintf("%d runs stopped early", failed)))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX\tN\tDROPPED")
	for _, s := range experiment.Summarize(results) {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%d\t%d\n",
			s.Name, s.Mean, s.StdDev, s.Min, s.Max, s.N, s.Dropped)
	}
	return w.Flush()
}
