// Command chart-grid-test runs GridTest against one projection of a chart,
// optionally iterating by relaxing trapped/hemisphering points and
// rescanning.
package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/gridtest"
	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
	"github.com/acorg/acmacs-chart-n/internal/climetrics"
	"github.com/acorg/acmacs-chart-n/metrics"
	"github.com/acorg/acmacs-chart-n/relax"
)

var (
	cfgFile  string
	logLevel string

	out          string
	step         float64
	iterateRelax bool
	projectionNo int
	onlyPoint    int
	metricsFile  string
)

func main() {
	root := &cobra.Command{
		Use:   "chart-grid-test <chart.json>",
		Short: "Run GridTest against one projection of a chart",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("chart-grid-test takes exactly one chart path: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runGridTest,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().StringVarP(&out, "output", "o", "", "output chart path, written only if --relax produced a new projection")
	root.Flags().Float64Var(&step, "step", 0.01, "grid step (map units)")
	root.Flags().BoolVar(&iterateRelax, "relax", false, "relax trapped/hemisphering points and rescan once")
	root.Flags().IntVar(&projectionNo, "projection", 0, "projection index to scan")
	root.Flags().IntVar(&onlyPoint, "point", -1, "report (and with --relax move) only this point index; every point is still scanned (-1 reports every point)")
	root.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus text-exposition metrics for this run to this path")

	cliexit.Run(root)
}

func runGridTest(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)

	path := args[0]
	c, err := chartfile.Load(path)
	if err != nil {
		return err
	}

	p, err := c.Projection(projectionNo)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}

	opts := gridtest.DefaultOptions()
	opts.GridStep = step
	opts.Threads = cfg.Threads

	var reg *prometheus.Registry
	if metricsFile != "" {
		reg = prometheus.NewRegistry()
		opts.Metrics = metrics.NewGridTest(reg)
	}

	results, err := gridtest.Run(c, p, opts)
	if err != nil {
		return err
	}
	if reg != nil {
		if err := climetrics.Dump(metricsFile, reg); err != nil {
			return err
		}
	}
	if onlyPoint >= 0 {
		results = filterPoint(results, onlyPoint)
	}
	printResults(results)

	if iterateRelax {
		moved, err := gridtest.MakeNewProjectionAndRelax(c, p, results, relax.DefaultOptions())
		if err != nil {
			return err
		}
		if err := c.AddProjection(moved); err != nil {
			return err
		}
		logger.Info().Int("projection", c.NumberOfProjections()-1).Msg("relaxed projection added")
		rescan, err := gridtest.Run(c, moved, opts)
		if err != nil {
			return err
		}
		if onlyPoint >= 0 {
			rescan = filterPoint(rescan, onlyPoint)
		}
		printResults(rescan)
		if out != "" {
			if err := chartfile.Save(out, c); err != nil {
				return err
			}
		}
	}

	return nil
}

func filterPoint(results []gridtest.PointResult, point int) []gridtest.PointResult {
	for _, r := range results {
		if r.Point == point {
			return []gridtest.PointResult{r}
		}
	}

	return nil
}

func printResults(results []gridtest.PointResult) {
	for _, r := range results {
		fmt.Printf("%d\t%s\t%.6f\t%.6f\n", r.Point, r.Classification, r.BestStress, r.Distance)
	}
}
