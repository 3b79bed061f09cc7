// Command chart-info prints a chart's info block, or a single field when
// one of the field flags is given.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/internal/chartfile"
	"github.com/acorg/acmacs-chart-n/internal/cliconfig"
	"github.com/acorg/acmacs-chart-n/internal/cliexit"
	"github.com/acorg/acmacs-chart-n/titertable"
)

var (
	cfgFile  string
	logLevel string

	fLab      bool
	fVirus    bool
	fAssay    bool
	fNumAg    bool
	fNumSr    bool
	fColBases string
	fDates    bool
	fTables   bool
)

func main() {
	root := &cobra.Command{
		Use:   "chart-info <chart.json>",
		Short: "Print a chart's info block, or one selected field",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("chart-info takes exactly one chart path: %w", cliexit.ErrUsage)
			}
			return nil
		},
		RunE: runInfo,
	}
	root.Flags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.Flags().StringVarP(&logLevel, "log-level", "v", "", "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&fLab, "lab", false, "print only the lab field")
	root.Flags().BoolVar(&fVirus, "virus", false, "print only virus/subtype")
	root.Flags().BoolVar(&fAssay, "assay", false, "print only the assay field")
	root.Flags().BoolVar(&fNumAg, "number-of-antigens", false, "print only the antigen count")
	root.Flags().BoolVar(&fNumSr, "number-of-sera", false, "print only the serum count")
	root.Flags().StringVar(&fColBases, "column-bases", "", "print computed column bases for this minimum column basis (e.g. \"none\" or \"1280\")")
	root.Flags().BoolVar(&fDates, "dates", false, "print only the date range")
	root.Flags().BoolVar(&fTables, "tables", false, "print the titer table")
	root.MarkFlagsMutuallyExclusive("lab", "virus", "assay", "number-of-antigens", "number-of-sera", "column-bases", "dates", "tables")

	cliexit.Run(root)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	logger := cliconfig.Logger(cfg, logLevel)

	c, err := chartfile.Load(args[0])
	if err != nil {
		return err
	}
	logger.Debug().Str("path", args[0]).Msg("chart loaded")

	switch {
	case fLab:
		fmt.Println(c.Info().Lab)
	case fVirus:
		info := c.Info()
		if info.Subtype == "" {
			fmt.Println(info.Virus)
		} else {
			fmt.Printf("%s/%s\n", info.Virus, info.Subtype)
		}
	case fAssay:
		fmt.Println(c.Info().Assay)
	case fNumAg:
		fmt.Println(c.NumberOfAntigens())
	case fNumSr:
		fmt.Println(c.NumberOfSera())
	case fColBases != "":
		return printColumnBases(c, fColBases)
	case fDates:
		fmt.Printf("%s-%s\n", c.Info().DateMin, c.Info().DateMax)
	case fTables:
		return c.ShowTable(cmd.OutOrStdout(), nil)
	default:
		fmt.Println(c.Description())
	}

	return nil
}

func printColumnBases(c *chart.Chart, raw string) error {
	mcb, err := titertable.ParseMinimumColumnBasis(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", cliexit.ErrUsage, err)
	}
	bases, err := c.ComputedColumnBases(mcb, true)
	if err != nil {
		return err
	}
	for s := 0; s < c.NumberOfSera(); s++ {
		v, err := bases.Basis(s)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%.4f\n", c.Sera()[s].Name, v)
	}

	return nil
}
