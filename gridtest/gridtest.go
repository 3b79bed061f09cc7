package gridtest

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/metrics"
	"github.com/acorg/acmacs-chart-n/relax"
	"github.com/acorg/acmacs-chart-n/stress"
)

// Classification is a point's grid-test outcome.
type Classification int

const (
	// Normal means the best grid position is no better than the current
	// one (within Epsilon): the point is already well placed.
	Normal Classification = iota

	// Trapped means a substantially better, substantially distant position
	// exists: the point is stuck in a local optimum ordinary relaxation
	// will not escape.
	Trapped

	// Hemisphering means a better position exists but at least one of the
	// stress drop and the distance does not cross its Trapped threshold — a
	// milder, ambiguous case.
	Hemisphering

	// Excluded means the point was disconnected or unmovable and was
	// never scanned.
	Excluded
)

// String names the classification.
func (c Classification) String() string {
	switch c {
	case Trapped:
		return "trapped"
	case Hemisphering:
		return "hemisphering"
	case Excluded:
		return "excluded"
	default:
		return "normal"
	}
}

// PointResult is one point's scan outcome.
type PointResult struct {
	Point          int
	Classification Classification
	BestPosition   []float64 // nil for Excluded
	BestStress     float64
	Distance       float64 // ||BestPosition - current position||
}

// Options configures a GridTest run.
type Options struct {
	// GridStep is the grid spacing h, typically 0.01 map units.
	GridStep float64

	// StretchFactor enlarges the per-point bounding box before scanning.
	// Defaults to 1.1 if <= 1.
	StretchFactor float64

	// Epsilon is the slack in "S* >= S_current - epsilon" that keeps a
	// point Normal despite floating-point noise. Defaults to 1e-6 if <= 0.
	Epsilon float64

	// HemispheringStressThreshold is the stress-drop threshold for
	// Trapped. Default 0.25.
	HemispheringStressThreshold float64

	// HemispheringDistanceThreshold is the distance threshold for
	// Trapped. Default 1.0.
	HemispheringDistanceThreshold float64

	Threads int

	// Metrics, if non-nil, counts points by classification.
	Metrics *metrics.GridTest
}

// DefaultOptions matches original_source/cc/grid-test.hh's defaults.
func DefaultOptions() Options {
	return Options{
		GridStep:                      0.01,
		StretchFactor:                 1.1,
		Epsilon:                       1e-6,
		HemispheringStressThreshold:   0.25,
		HemispheringDistanceThreshold: 1.0,
	}
}

// Run scans every non-disconnected, non-unmovable point of p's layout on
// an h-spaced grid covering a bounding box stretched around the titer-
// implied target circles from its partners, classifying each point.
// Scans run concurrently across points, bounded by
// opts.Threads (default GOMAXPROCS).
func Run(c *chart.Chart, p *chart.Projection, opts Options) ([]PointResult, error) {
	step := opts.GridStep
	if step <= 0 {
		return nil, fmt.Errorf("gridtest.Run: %w", ErrInvalidGridStep)
	}
	stretch := opts.StretchFactor
	if stretch <= 1 {
		stretch = 1.1
	}
	epsilon := opts.Epsilon
	if epsilon <= 0 {
		epsilon = 1e-6
	}
	hemiStress := opts.HemispheringStressThreshold
	if hemiStress <= 0 {
		hemiStress = 0.25
	}
	hemiDist := opts.HemispheringDistanceThreshold
	if hemiDist <= 0 {
		hemiDist = 1.0
	}

	td, err := stress.BuildTableDistances(c, p, true)
	if err != nil {
		return nil, fmt.Errorf("gridtest.Run: %w", err)
	}
	st := stress.New(td, p)
	current, err := st.Value(p.Layout())
	if err != nil {
		return nil, fmt.Errorf("gridtest.Run: %w", err)
	}
	records := td.Records()

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	n := p.NumberOfPoints()
	results := make([]PointResult, n)
	var g errgroup.Group
	g.SetLimit(threads)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if p.IsDisconnected(i) || p.IsUnmovable(i) {
				results[i] = PointResult{Point: i, Classification: Excluded}
				if opts.Metrics != nil {
					opts.Metrics.PointsClassified.WithLabelValues(Excluded.String()).Inc()
				}

				return nil
			}

			row, err := p.Layout().Row(i)
			if err != nil {
				return err
			}

			lo, hi := boundingBox(records, i, p.Layout(), row, stretch)
			best, bestStress, err := scanGrid(st, p, i, lo, hi, step)
			if err != nil {
				return err
			}

			dist := euclidean(best, row)
			cls := classify(bestStress, current, dist, epsilon, hemiStress, hemiDist)
			results[i] = PointResult{
				Point:          i,
				Classification: cls,
				BestPosition:   best,
				BestStress:     bestStress,
				Distance:       dist,
			}
			if opts.Metrics != nil {
				opts.Metrics.PointsClassified.WithLabelValues(cls.String()).Inc()
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gridtest.Run: %w", err)
	}

	return results, nil
}

// boundingBox is the smallest axis-aligned box enclosing every titer-
// implied circle (partner position, radius = record target) touching
// point, stretched by stretch; this stands in for a dedicated min-
// enclosing-ball solver (original_source/cc/bounding-ball.hh), equivalent
// in effect for the D<=5 maps this package targets and simpler to
// implement (see DESIGN.md).
func boundingBox(records []stress.Record, point int, layout *chart.Layout, ownRow []float64, stretch float64) ([]float64, []float64) {
	dims := len(ownRow)
	lo := make([]float64, dims)
	hi := make([]float64, dims)
	for d := 0; d < dims; d++ {
		lo[d] = math.Inf(1)
		hi[d] = math.Inf(-1)
	}

	found := false
	for _, r := range records {
		var partner int
		switch point {
		case r.I:
			partner = r.J
		case r.J:
			partner = r.I
		default:
			continue
		}
		prow, err := layout.Row(partner)
		if err != nil || anyNaN(prow) {
			continue
		}
		radius := r.Target
		if radius < 0 {
			radius = 0
		}
		for d := 0; d < dims; d++ {
			if prow[d]-radius < lo[d] {
				lo[d] = prow[d] - radius
			}
			if prow[d]+radius > hi[d] {
				hi[d] = prow[d] + radius
			}
		}
		found = true
	}

	if !found {
		for d := 0; d < dims; d++ {
			lo[d] = ownRow[d] - 1
			hi[d] = ownRow[d] + 1
		}
	}

	for d := 0; d < dims; d++ {
		mid := (lo[d] + hi[d]) / 2
		half := (hi[d] - lo[d]) / 2 * stretch
		lo[d] = mid - half
		hi[d] = mid + half
	}

	return lo, hi
}

// scanGrid walks every grid point in [lo,hi]^dims at spacing step,
// returning the minimum-stress position and its stress.
func scanGrid(st *stress.Stress, p *chart.Projection, point int, lo, hi []float64, step float64) ([]float64, float64, error) {
	dims := len(lo)
	counts := make([]int, dims)
	for d := 0; d < dims; d++ {
		n := int(math.Floor((hi[d]-lo[d])/step)) + 1
		if n < 1 {
			n = 1
		}
		counts[d] = n
	}

	coords := make([]float64, dims)
	var best []float64
	bestStress := math.Inf(1)
	var walkErr error

	var walk func(d int)
	walk = func(d int) {
		if walkErr != nil {
			return
		}
		if d == dims {
			v, err := relax.StressWithMovedPoint(st, p, point, coords)
			if err != nil {
				walkErr = err

				return
			}
			if v < bestStress {
				bestStress = v
				best = append([]float64(nil), coords...)
			}

			return
		}
		for i := 0; i < counts[d]; i++ {
			coords[d] = lo[d] + step*float64(i)
			walk(d + 1)
			if walkErr != nil {
				return
			}
		}
	}
	walk(0)

	return best, bestStress, walkErr
}

func classify(bestStress, current, distance, epsilon, hemiStress, hemiDist float64) Classification {
	if bestStress >= current-epsilon {
		return Normal
	}
	if bestStress < current-hemiStress && distance > hemiDist {
		return Trapped
	}

	return Hemisphering
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += (a[i] - b[i]) * (a[i] - b[i])
	}

	return math.Sqrt(sum)
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}

// MakeNewProjectionAndRelax clones p, moves every Trapped/Hemisphering
// result's point to its BestPosition, and re-optimizes the clone with fine
// precision. Iterating Run + this function
// until no Trapped points remain is the caller's responsibility.
func MakeNewProjectionAndRelax(c *chart.Chart, p *chart.Projection, results []PointResult, opts relax.Options) (*chart.Projection, error) {
	clone := p.Clone()
	moved := false
	for _, r := range results {
		if r.Classification != Trapped && r.Classification != Hemisphering {
			continue
		}
		if err := clone.Layout().SetRow(r.Point, r.BestPosition); err != nil {
			return nil, fmt.Errorf("gridtest.MakeNewProjectionAndRelax: %w", err)
		}
		moved = true
	}
	if !moved {
		return clone, nil
	}

	fineOpts := opts
	fineOpts.Precision = relax.Fine
	if err := relax.Relax(c, clone, fineOpts); err != nil {
		return nil, fmt.Errorf("gridtest.MakeNewProjectionAndRelax: %w", err)
	}

	return clone, nil
}
