// Command chart-relax runs multi-start optimization on a chart and writes
// the result (with new projections appended) back out.
package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
	"github.com/acorg/acmacs-chart-n/internal/climetrics"
	"github.com/acorg/acmacs-chart-n/metrics"
	"github.com/acorg/acmacs-chart-n/relax"
	"github.com/acorg/acmacs-chart-n/titertable"
)

var (
	cfgFile  string
	logLevel string

	out                   string
	attempts              int
	dimensions            []int
	minimumColumnBasis    string
	rough                 bool
	fine                  int
	method                string
	maxDistanceMultiplier float64
	keepProjections       int
	disconnectAntigens    []int
	disconnectSera        []int
	noAutoDisconnect      bool
	threads               int
	seed                  int64
	metricsFile           string
)

func main() {
	root := &cobra.Command{
		Use:   "chart-relax <chart.json>",
		Short: "Run multi-start optimization on a chart",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("chart-relax takes exactly one chart path: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runRelax,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().StringVarP(&out, "output", "o", "", "output chart path (defaults to overwriting the input)")
	root.Flags().IntVarP(&attempts, "number-of-optimizations", "n", 10, "number of independent optimization attempts")
	root.Flags().IntSliceVarP(&dimensions, "dimensions", "d", []int{2}, "dimension annealing schedule, e.g. -d 5,2")
	root.Flags().StringVarP(&minimumColumnBasis, "minimum-column-basis", "m", "none", "minimum column basis (\"none\" or a titer, e.g. \"1280\")")
	root.Flags().BoolVar(&rough, "rough", false, "stop after rough precision (skip fine polishing)")
	root.Flags().IntVar(&fine, "fine", 0, "polish this many of the best rough projections with fine precision")
	root.Flags().StringVar(&method, "method", "alglib-cg", "optimizer method: alglib-cg or alglib-lbfgs")
	root.Flags().Float64Var(&maxDistanceMultiplier, "md", 2.0, "max-distance multiplier sizing the randomization box")
	root.Flags().IntVar(&keepProjections, "keep-projections", 0, "keep only this many best projections (0 keeps all)")
	root.Flags().IntSliceVar(&disconnectAntigens, "disconnect-antigens", nil, "antigen indices to force-disconnect")
	root.Flags().IntSliceVar(&disconnectSera, "disconnect-sera", nil, "serum indices to force-disconnect")
	root.Flags().BoolVar(&noAutoDisconnect, "no-disconnect-having-few-titers", false, "disable automatic disconnection of points with too few titers")
	root.Flags().IntVar(&threads, "threads", 0, "worker threads (0 = GOMAXPROCS)")
	root.Flags().Int64Var(&seed, "seed", 0, "deterministic RNG seed")
	root.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus text-exposition metrics for this run to this path")

	cliexit.Run(root)
}

func runRelax(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)
	if threads == 0 {
		threads = cfg.Threads
	}

	path := args[0]
	if out == "" {
		out = path
	}

	c, err := chartfile.Load(path)
	if err != nil {
		return err
	}

	mcb, err := titertable.ParseMinimumColumnBasis(minimumColumnBasis)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}

	var m relax.Method
	switch method {
	case "alglib-lbfgs":
		m = relax.LBFGS
	case "alglib-cg", "":
		m = relax.CG
	default:
		return fmt.Errorf("%w: unknown --method %q", cliexit.ErrUsage, method)
	}

	opts := relax.DefaultMultiStartOptions()
	opts.Attempts = attempts
	opts.DimensionSchedule = dimensions
	opts.MinimumColumnBasis = mcb
	opts.MaxDistanceMultiplier = maxDistanceMultiplier
	opts.KeepTop = keepProjections
	opts.AutoDisconnect = !noAutoDisconnect
	opts.ExtraDisconnected = append(append([]int{}, disconnectAntigens...), shiftByAntigens(c.NumberOfAntigens(), disconnectSera)...)
	opts.Threads = threads
	opts.Seed = seed
	opts.RoughOptions.Method = m
	opts.FineOptions.Method = m
	if rough {
		opts.PolishTopWithFine = 0
	} else if fine > 0 {
		opts.PolishTopWithFine = fine
	} else {
		opts.PolishTopWithFine = attempts
	}

	var reg *prometheus.Registry
	if metricsFile != "" {
		reg = prometheus.NewRegistry()
		opts.Metrics = metrics.NewRelax(reg)
	}

	logger.Info().Int("attempts", attempts).Ints("dimensions", dimensions).Msg("starting multi-start relaxation")
	if err := relax.MultiStart(c, opts); err != nil {
		return fmt.Errorf("chart-relax: %w", err)
	}
	logger.Info().Int("projections", c.NumberOfProjections()).Msg("relaxation complete")

	if reg != nil {
		if err := climetrics.Dump(metricsFile, reg); err != nil {
			return err
		}
	}

	if err := chartfile.Save(out, c); err != nil {
		return err
	}

	return nil
}

// shiftByAntigens converts serum-local indices into Chart-wide point
// indices (sera follow antigens in Projection/Layout row order).
func shiftByAntigens(nAg int, sera []int) []int {
	shifted := make([]int, len(sera))
	for i, s := range sera {
		shifted[i] = nAg + s
	}

	return shifted
}
