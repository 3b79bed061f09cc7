package relax

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
	"github.com/acorg/acmacs-chart-n/metrics"
	"github.com/acorg/acmacs-chart-n/titertable"
)

// MultiStartOptions configures the multi-start/dimension-annealing driver
// that populates a Chart's projection list.
type MultiStartOptions struct {
	Attempts          int
	DimensionSchedule []int
	Seed              int64

	// MaxDistanceMultiplier sizes the randomization box: side length is
	// max_table_distance * MaxDistanceMultiplier, centered at the origin.
	// Defaults to 2 if <= 0.
	MaxDistanceMultiplier float64

	// AutoDisconnect marks, before optimizing, every point with fewer than
	// AutoDisconnectMinimum (default 3) Regular titers against the other
	// side as disconnected.
	AutoDisconnect        bool
	AutoDisconnectMinimum int

	// ExtraDisconnected marks additional point indices as disconnected
	// regardless of their titer coverage, merged with AutoDisconnect's set.
	ExtraDisconnected []int

	MinimumColumnBasis  titertable.MinimumColumnBasis
	ForcedColumnBases   []float64
	DodgyTiterIsRegular bool

	// KeepTop, if > 0 and less than Attempts, drops every projection but
	// the KeepTop best (by stress, ascending) before appending to the
	// Chart.
	KeepTop int

	// PolishTopWithFine, if > 0, re-relaxes that many of the best rough
	// projections with FineOptions at the schedule's final dimension.
	PolishTopWithFine int

	Threads int

	RoughOptions Options
	FineOptions  Options

	// Metrics, if non-nil, records attempt counts and the best stress
	// seen to the collectors it wraps.
	Metrics *metrics.Relax
}

// DefaultMultiStartOptions is 10 rough attempts at 2 dimensions, auto
// disconnect on, no polishing, all attempts kept, default parallelism.
func DefaultMultiStartOptions() MultiStartOptions {
	return MultiStartOptions{
		Attempts:              10,
		DimensionSchedule:     []int{2},
		MaxDistanceMultiplier: 2,
		AutoDisconnect:        true,
		AutoDisconnectMinimum: 3,
		MinimumColumnBasis:    titertable.NoMinimumColumnBasis(),
		RoughOptions:          Options{Method: CG, Precision: Rough, MaxIterations: 10000, ClampNegativeTargets: true},
		FineOptions:           Options{Method: CG, Precision: Fine, MaxIterations: 10000, ClampNegativeTargets: true},
	}
}

// MultiStart runs opts.Attempts independent relaxations (randomize ->
// dimension-annealed rough optimization), sorts the results by stress,
// optionally polishes the best few with fine precision, optionally keeps
// only the top K, and appends the survivors to c in ascending-stress order.
// Attempts run concurrently,
// bounded by opts.Threads (default GOMAXPROCS); the Chart is only touched
// after every attempt has finished.
func MultiStart(c *chart.Chart, opts MultiStartOptions) error {
	if opts.Attempts <= 0 {
		return fmt.Errorf("relax.MultiStart: %w", ErrNoAttempts)
	}
	schedule := opts.DimensionSchedule
	if len(schedule) == 0 {
		return fmt.Errorf("relax.MultiStart: %w", ErrEmptySchedule)
	}

	disconnected := map[int]struct{}{}
	if opts.AutoDisconnect {
		threshold := opts.AutoDisconnectMinimum
		if threshold <= 0 {
			threshold = 3
		}
		for _, i := range c.Table().HavingTooFewNumericTiters(threshold) {
			disconnected[i] = struct{}{}
		}
	}
	for _, i := range opts.ExtraDisconnected {
		disconnected[i] = struct{}{}
	}

	maxDist, err := maxTableDistance(c, opts.MinimumColumnBasis)
	if err != nil {
		return fmt.Errorf("relax.MultiStart: %w", err)
	}
	multiplier := opts.MaxDistanceMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	halfBox := maxDist * multiplier / 2

	var projOpts []chart.ProjectionOption
	projOpts = append(projOpts, chart.WithMinimumColumnBasis(opts.MinimumColumnBasis))
	if opts.ForcedColumnBases != nil {
		projOpts = append(projOpts, chart.WithForcedColumnBases(opts.ForcedColumnBases))
	}
	if opts.DodgyTiterIsRegular {
		projOpts = append(projOpts, chart.WithDodgyTiterIsRegular(true))
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	results := make([]*chart.Projection, opts.Attempts)
	var g errgroup.Group
	g.SetLimit(threads)
	for i := 0; i < opts.Attempts; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			layout, err := randomizeLayout(rng, c.NumberOfPoints(), schedule[0], disconnected, halfBox)
			if err != nil {
				return err
			}
			p := chart.NewProjectionFromLayout(layout, projOpts...)
			for idx := range disconnected {
				p.SetDisconnected(idx)
			}

			if opts.Metrics != nil {
				opts.Metrics.AttemptsStarted.Inc()
			}

			attemptOpts := opts.RoughOptions
			attemptOpts.DimensionSchedule = schedule
			if err := Relax(c, p, attemptOpts); err != nil {
				return err
			}
			results[i] = p
			if opts.Metrics != nil {
				opts.Metrics.AttemptsConverged.Inc()
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("relax.MultiStart: %w", err)
	}

	sortByStress(results)

	if opts.PolishTopWithFine > 0 {
		n := opts.PolishTopWithFine
		if n > len(results) {
			n = len(results)
		}
		fineOpts := opts.FineOptions
		fineOpts.DimensionSchedule = []int{schedule[len(schedule)-1]}
		for i := 0; i < n; i++ {
			if err := Relax(c, results[i], fineOpts); err != nil {
				return fmt.Errorf("relax.MultiStart: %w", err)
			}
		}
		sortByStress(results)
	}

	if opts.KeepTop > 0 && opts.KeepTop < len(results) {
		results = results[:opts.KeepTop]
	}

	for _, p := range results {
		if err := c.AddProjection(p); err != nil {
			return fmt.Errorf("relax.MultiStart: %w", err)
		}
	}
	c.SortProjectionsByStress()

	if opts.Metrics != nil && len(results) > 0 {
		if best, err := results[0].StoredStress(); err == nil {
			opts.Metrics.BestStress.Set(best)
		}
	}

	return nil
}

func sortByStress(results []*chart.Projection) {
	sort.SliceStable(results, func(i, j int) bool {
		si, _ := results[i].StoredStress()
		sj, _ := results[j].StoredStress()

		return si < sj
	})
}

// randomizeLayout draws coordinates uniformly in [-halfBox, halfBox] for
// every point not in disconnected, which instead gets an all-NaN row (the
// Layout convention marking a disconnected point).
func randomizeLayout(rng *rand.Rand, nPoints, dim int, disconnected map[int]struct{}, halfBox float64) (*chart.Layout, error) {
	layout, err := matrix.NewDense(nPoints, dim)
	if err != nil {
		return nil, fmt.Errorf("relax.randomizeLayout: %w", err)
	}
	row := make([]float64, dim)
	for i := 0; i < nPoints; i++ {
		if _, ok := disconnected[i]; ok {
			for d := range row {
				row[d] = math.NaN()
			}
		} else {
			for d := range row {
				row[d] = (rng.Float64()*2 - 1) * halfBox
			}
		}
		if err := layout.SetRow(i, row); err != nil {
			return nil, fmt.Errorf("relax.randomizeLayout: %w", err)
		}
	}

	return layout, nil
}

// maxTableDistance is max_s column_basis(s) - min_{a,s} titer.logged over
// Regular/Less/More titers, the side length unit for
// the randomization box.
func maxTableDistance(c *chart.Chart, minimum titertable.MinimumColumnBasis) (float64, error) {
	cb, err := c.ComputedColumnBases(minimum, true)
	if err != nil {
		return 0, fmt.Errorf("relax.maxTableDistance: %w", err)
	}

	var maxBasis float64
	hasBasis := false
	for s := 0; s < cb.Size(); s++ {
		v, err := cb.Basis(s)
		if err != nil {
			return 0, fmt.Errorf("relax.maxTableDistance: %w", err)
		}
		if !hasBasis || v > maxBasis {
			maxBasis, hasBasis = v, true
		}
	}

	table := c.Table()
	minLogged := math.Inf(1)
	hasLogged := false
	for a := 0; a < c.NumberOfAntigens(); a++ {
		for s := 0; s < c.NumberOfSera(); s++ {
			t, err := table.Titer(a, s)
			if err != nil {
				return 0, fmt.Errorf("relax.maxTableDistance: %w", err)
			}
			if !(t.IsRegular() || t.IsLessThan() || t.IsMoreThan()) {
				continue
			}
			v, err := t.Logged()
			if err != nil {
				return 0, fmt.Errorf("relax.maxTableDistance: %w", err)
			}
			if v < minLogged {
				minLogged, hasLogged = v, true
			}
		}
	}
	if !hasBasis || !hasLogged {
		return 0, nil
	}

	return maxBasis - minLogged, nil
}
