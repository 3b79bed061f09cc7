// Command chart-reorient Procrustes-aligns a chart's projection onto a
// master chart's projection over their antigens/sera in common.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
	"github.com/acorg/acmacs-chart-n/merge"
	"github.com/acorg/acmacs-chart-n/procrustes"
)

var (
	cfgFile          string
	logLevel         string
	out              string
	masterProjection int
	projectionNo     int
	scaling          bool
	matchFlag        string
)

func main() {
	root := &cobra.Command{
		Use:   "chart-reorient <master.json> <chart.json>",
		Short: "Procrustes-align a chart's projection onto a master chart",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("chart-reorient takes a master chart path and a chart path: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runReorient,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().StringVarP(&out, "output", "o", "", "output chart path (defaults to overwriting the second chart)")
	root.Flags().IntVar(&masterProjection, "master-projection", 0, "master chart's projection index")
	root.Flags().IntVar(&projectionNo, "projection", 0, "chart's projection index to align")
	root.Flags().BoolVar(&scaling, "scaling", false, "allow a uniform scale factor alongside rotation/translation")
	root.Flags().StringVar(&matchFlag, "match", "auto", "match level used to find common antigens/sera: strict, relaxed, ignored, auto")

	cliexit.Run(root)
}

func runReorient(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)

	masterPath, path := args[0], args[1]
	if out == "" {
		out = path
	}

	master, err := chartfile.Load(masterPath)
	if err != nil {
		return err
	}
	c, err := chartfile.Load(path)
	if err != nil {
		return err
	}

	matchLevel, err := parseMatchLevel(matchFlag)
	if err != nil {
		return err
	}

	masterProj, err := master.Projection(masterProjection)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	secondaryProj, err := c.Projection(projectionNo)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}

	commonAg := merge.MatchAntigens(master.Antigens(), c.Antigens(), matchLevel)
	commonSr := merge.MatchSera(master.Sera(), c.Sera(), matchLevel)

	pairs := make([]procrustes.Pair, 0, len(commonAg)+len(commonSr))
	for _, p := range commonAg {
		pairs = append(pairs, procrustes.Pair{Primary: p.Primary, Secondary: p.Secondary})
	}
	nAgMaster := master.NumberOfAntigens()
	nAgSecondary := c.NumberOfAntigens()
	for _, p := range commonSr {
		pairs = append(pairs, procrustes.Pair{Primary: nAgMaster + p.Primary, Secondary: nAgSecondary + p.Secondary})
	}

	result, err := procrustes.Align(masterProj, secondaryProj, pairs, procrustes.Options{Scaling: scaling})
	if err != nil {
		return fmt.Errorf("chart-reorient: %w", err)
	}
	logger.Info().Float64("rms_residual", result.RMSResidual).Int("common_points", len(pairs)).Msg("procrustes alignment computed")

	aligned, err := procrustes.Apply(secondaryProj.Layout(), result)
	if err != nil {
		return fmt.Errorf("chart-reorient: %w", err)
	}
	secondaryProj.SetLayout(aligned)

	return chartfile.Save(out, c)
}

func parseMatchLevel(s string) (merge.MatchLevel, error) {
	switch s {
	case "strict":
		return merge.Strict, nil
	case "relaxed":
		return merge.Relaxed, nil
	case "ignored":
		return merge.Ignored, nil
	case "auto", "":
		return merge.Automatic, nil
	default:
		return 0, fmt.Errorf("%w: unknown --match %q", cliexit.ErrUsage, s)
	}
}
