// Command chart-remove-antigens-sera deletes antigens and/or sera from a
// chart by index, updating the titer table and every projection in place.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
)

var (
	cfgFile  string
	logLevel string

	out      string
	antigens []int
	sera     []int
)

func main() {
	root := &cobra.Command{
		Use:   "chart-remove-antigens-sera <chart.json>",
		Short: "Remove antigens and/or sera from a chart by index",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("chart-remove-antigens-sera takes exactly one chart path: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runRemove,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().StringVarP(&out, "output", "o", "", "output chart path (defaults to overwriting the input)")
	root.Flags().IntSliceVar(&antigens, "antigens", nil, "antigen indices to remove")
	root.Flags().IntSliceVar(&sera, "sera", nil, "serum indices to remove")

	cliexit.Run(root)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)

	if len(antigens) == 0 && len(sera) == 0 {
		return fmt.Errorf("chart-remove-antigens-sera requires --antigens and/or --sera: %w", cliexit.ErrUsage)
	}

	path := args[0]
	if out == "" {
		out = path
	}

	c, err := chartfile.Load(path)
	if err != nil {
		return err
	}

	if len(antigens) > 0 {
		if err := c.RemoveAntigens(antigens); err != nil {
			return fmt.Errorf("chart-remove-antigens-sera: %w", err)
		}
		logger.Info().Ints("antigens", antigens).Msg("antigens removed")
	}
	if len(sera) > 0 {
		if err := c.RemoveSera(sera); err != nil {
			return fmt.Errorf("chart-remove-antigens-sera: %w", err)
		}
		logger.Info().Ints("sera", sera).Msg("sera removed")
	}

	return chartfile.Save(out, c)
}
