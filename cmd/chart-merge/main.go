// Command chart-merge combines two or more charts into one.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
	"github.com/acorg/acmacs-chart-n/merge"
)

var (
	cfgFile   string
	logLevel  string
	out       string
	matchFlag string
	typeFlag  string
)

func main() {
	root := &cobra.Command{
		Use:   "chart-merge <chart1.json> <chart2.json> [more...]",
		Short: "Merge two or more charts into one",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("chart-merge takes at least two chart paths: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runMerge,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().StringVarP(&out, "output", "o", "merged.json", "output chart path")
	root.Flags().StringVar(&matchFlag, "match", "auto", "match level: strict, relaxed, ignored, auto")
	root.Flags().StringVar(&typeFlag, "merge-type", "simple", "projection merge type: type1..type5, simple, incremental, overlay")

	cliexit.Run(root)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)

	matchLevel, err := parseMatchLevel(matchFlag)
	if err != nil {
		return err
	}
	projType, err := parseMergeType(typeFlag)
	if err != nil {
		return err
	}

	primary, err := chartfile.Load(args[0])
	if err != nil {
		return err
	}

	opts := merge.DefaultOptions()
	opts.MatchLevel = matchLevel
	opts.ProjectionType = projType

	for _, path := range args[1:] {
		secondary, err := chartfile.Load(path)
		if err != nil {
			return err
		}
		result, err := merge.Merge(primary, secondary, opts)
		if err != nil {
			return fmt.Errorf("chart-merge: %w", err)
		}
		logger.Info().
			Str("secondary", path).
			Int("common_antigens", len(result.CommonAntigens)).
			Int("common_sera", len(result.CommonSera)).
			Msg("merged chart")
		primary = result.Chart
	}

	return chartfile.Save(out, primary)
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

func parseMergeType(s string) (merge.ProjectionMergeType, error) {
	switch s {
	case "type1", "simple", "":
		return merge.Type1, nil
	case "type2", "incremental":
		return merge.Type2, nil
	case "type3", "overlay":
		return merge.Type3, nil
	case "type4":
		return merge.Type4, nil
	case "type5":
		return merge.Type5, nil
	default:
		return 0, fmt.Errorf("%w: unknown --merge-type %q", cliexit.ErrUsage, s)
	}
}
