package resolutiontest

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/relax"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// Options configures a Run sweep over dimensions x proportions x
// replicates.
type Options struct {
	Dimensions  []int
	Proportions []float64
	Replicates  int
	// OptimizationsPerReplicate is N_opt: the replicate's titer-reduced
	// chart is relaxed this many times and the best (lowest-stress)
	// projection is kept.
	OptimizationsPerReplicate int

	MinimumColumnBasis titertable.MinimumColumnBasis
	// ColumnBasesFromMaster forces each replicate's column bases to the
	// master chart's computed values instead of recomputing them from the
	// reduced table.
	ColumnBasesFromMaster bool

	Seed int64

	// MultiStart is the base template for each replicate's relaxation;
	// Run overrides DimensionSchedule, Attempts, Seed, KeepTop and
	// MinimumColumnBasis per replicate (and ForcedColumnBases when
	// ColumnBasesFromMaster is set) and leaves everything else (rough/fine precision,
	// auto-disconnect, threads) as given.
	MultiStart relax.MultiStartOptions
}

// DefaultOptions is 10 replicates of 5 optimizations each, column bases
// recomputed per replicate (not forced from the master).
func DefaultOptions() Options {
	return Options{
		Replicates:                10,
		OptimizationsPerReplicate: 5,
		MinimumColumnBasis:        titertable.NoMinimumColumnBasis(),
		MultiStart:                relax.DefaultMultiStartOptions(),
	}
}

// ReplicateResult is one (dimension, proportion, replicate)'s comparison
// between predicted and master distances over the cells dropped in that
// replicate.
type ReplicateResult struct {
	Dimension         int
	Proportion        float64
	Replicate         int
	DroppedCells      int
	MeanAbsoluteError float64
	SD                float64
	Correlation       float64
	RSquared          float64
}

// Summary aggregates ReplicateResults sharing a (dimension, proportion)
// pair: mean +/- SD of the per-replicate mean absolute error, and the mean
// correlation/r^2 across replicates.
type Summary struct {
	Dimension             int
	Proportion            float64
	MeanAbsoluteError     float64
	SDOfMeanAbsoluteError float64
	MeanCorrelation       float64
	MeanRSquared          float64
	Replicates            []ReplicateResult
}

// Run sweeps every (dimension, proportion) pair in opts, running
// opts.Replicates independent dropout trials each, and returns one Summary
// per pair.
func Run(c *chart.Chart, opts Options) ([]Summary, error) {
	if len(opts.Dimensions) == 0 {
		return nil, fmt.Errorf("resolutiontest.Run: %w", ErrNoDimensions)
	}
	if len(opts.Proportions) == 0 {
		return nil, fmt.Errorf("resolutiontest.Run: %w", ErrNoProportions)
	}
	if opts.Replicates <= 0 {
		return nil, fmt.Errorf("resolutiontest.Run: %w", ErrNoReplicates)
	}

	masterCB, err := c.ComputedColumnBases(opts.MinimumColumnBasis, true)
	if err != nil {
		return nil, fmt.Errorf("resolutiontest.Run: %w", err)
	}

	var summaries []Summary
	for _, dim := range opts.Dimensions {
		for _, p := range opts.Proportions {
			reps := make([]ReplicateResult, opts.Replicates)
			for r := 0; r < opts.Replicates; r++ {
				rep, err := runReplicate(c, masterCB, dim, p, r, opts)
				if err != nil {
					return nil, fmt.Errorf("resolutiontest.Run: %w", err)
				}
				reps[r] = rep
			}
			summaries = append(summaries, summarize(dim, p, reps))
		}
	}

	return summaries, nil
}

func runReplicate(c *chart.Chart, masterCB *titertable.ColumnBases, dim int, proportion float64, replicate int, opts Options) (ReplicateResult, error) {
	seed := opts.Seed + int64(replicate) + int64(proportion*1000)*7919

	masterTable := c.Table()
	trialTable, err := masterTable.SetProportionOfTitersToDontCare(proportion, seed)
	if err != nil {
		return ReplicateResult{}, err
	}
	dropped, err := droppedCells(masterTable, trialTable)
	if err != nil {
		return ReplicateResult{}, err
	}

	trialChart, err := chart.New(c.Info(), c.Antigens(), c.Sera(), trialTable)
	if err != nil {
		return ReplicateResult{}, err
	}

	msOpts := opts.MultiStart
	msOpts.DimensionSchedule = []int{dim}
	msOpts.Attempts = opts.OptimizationsPerReplicate
	msOpts.Seed = seed
	msOpts.KeepTop = 1
	msOpts.MinimumColumnBasis = opts.MinimumColumnBasis

	if opts.ColumnBasesFromMaster {
		forced := make([]float64, masterCB.Size())
		for s := range forced {
			v, err := masterCB.Basis(s)
			if err != nil {
				return ReplicateResult{}, err
			}
			forced[s] = v
		}
		msOpts.ForcedColumnBases = forced
	}

	if err := relax.MultiStart(trialChart, msOpts); err != nil {
		return ReplicateResult{}, err
	}
	best, err := trialChart.Projection(0)
	if err != nil {
		return ReplicateResult{}, err
	}

	predicted := make([]float64, 0, len(dropped))
	master := make([]float64, 0, len(dropped))
	for _, cell := range dropped {
		basis, err := masterCB.Basis(cell.serum)
		if err != nil {
			return ReplicateResult{}, err
		}
		logged, err := cell.titer.Logged()
		if err != nil {
			return ReplicateResult{}, err
		}

		agRow, err := best.Layout().Row(cell.antigen)
		if err != nil {
			return ReplicateResult{}, err
		}
		srRow, err := best.Layout().Row(trialChart.NumberOfAntigens() + cell.serum)
		if err != nil {
			return ReplicateResult{}, err
		}
		if anyNaN(agRow) || anyNaN(srRow) {
			continue
		}

		master = append(master, basis-logged)
		predicted = append(predicted, euclidean(agRow, srRow))
	}

	mae, sd := meanAbsoluteErrorAndSD(predicted, master)
	corr := pearsonCorrelation(predicted, master)

	return ReplicateResult{
		Dimension:         dim,
		Proportion:        proportion,
		Replicate:         replicate,
		DroppedCells:      len(predicted),
		MeanAbsoluteError: mae,
		SD:                sd,
		Correlation:       corr,
		RSquared:          corr * corr,
	}, nil
}

func summarize(dim int, proportion float64, reps []ReplicateResult) Summary {
	maes := make([]float64, len(reps))
	var sumCorr, sumR2 float64
	for i, r := range reps {
		maes[i] = r.MeanAbsoluteError
		sumCorr += r.Correlation
		sumR2 += r.RSquared
	}
	meanMAE, sdMAE := meanAndSD(maes)

	return Summary{
		Dimension:             dim,
		Proportion:            proportion,
		MeanAbsoluteError:     meanMAE,
		SDOfMeanAbsoluteError: sdMAE,
		MeanCorrelation:       sumCorr / float64(len(reps)),
		MeanRSquared:          sumR2 / float64(len(reps)),
		Replicates:            reps,
	}
}
