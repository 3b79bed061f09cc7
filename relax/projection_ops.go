package relax

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix/ops"
	"github.com/acorg/acmacs-chart-n/stress"
)

// Relax minimizes p's stress in place against c's titer table, running one
// Optimizer pass per entry of opts.DimensionSchedule (a non-increasing
// sequence of target dimensions). Between stages the
// layout is PCA-projected down to the next stage's dimension
// (matrix/ops.PCAProject); the final stage's dimension becomes p's new
// dimensionality. An empty schedule means "optimize once, at p's current
// dimensionality". p.SetStoredStress is updated to the final-stage stress,
// maintaining the Projection invariant that StoredStress equals
// recomputing stress on the final layout.
func Relax(c *chart.Chart, p *chart.Projection, opts Options) error {
	schedule := opts.DimensionSchedule
	if len(schedule) == 0 {
		schedule = []int{p.NumberOfDimensions()}
	}
	if schedule[0] != p.NumberOfDimensions() {
		return fmt.Errorf("relax.Relax: %w", ErrScheduleMismatch)
	}

	stageOpts := opts
	if stageOpts.StressDiffToStop == nil {
		if v, ok := p.StressDiffToStop(); ok {
			stageOpts.StressDiffToStop = &v
		}
	}

	var finalStress float64
	for i, dim := range schedule {
		if i > 0 {
			projected, _, err := ops.PCAProject(p.Layout(), dim)
			if err != nil {
				return fmt.Errorf("relax.Relax: %w", err)
			}
			p.SetLayout(projected)
		}

		td, err := stress.BuildTableDistances(c, p, opts.ClampNegativeTargets)
		if err != nil {
			return fmt.Errorf("relax.Relax: %w", err)
		}
		st := stress.New(td, p)

		optz := NewOptimizer(st, stageOpts)
		value, err := optz.Run(p.Layout())
		if err != nil {
			return fmt.Errorf("relax.Relax: %w", err)
		}
		finalStress = value
	}
	p.SetStoredStress(finalStress)

	return nil
}

// StressWithMovedPoint returns the stress of p's layout with point's row
// temporarily replaced by newCoords, without mutating p or rebuilding st
// (a cheap probe used by GridTest to scan many
// candidate positions for one point). Callers that probe repeatedly should
// build st once via stress.BuildTableDistances + stress.New and reuse it.
func StressWithMovedPoint(st *stress.Stress, p *chart.Projection, point int, newCoords []float64) (float64, error) {
	trial := p.Layout().Clone()
	if err := trial.SetRow(point, newCoords); err != nil {
		return 0, fmt.Errorf("relax.StressWithMovedPoint: %w", err)
	}

	v, err := st.Value(trial)
	if err != nil {
		return 0, fmt.Errorf("relax.StressWithMovedPoint: %w", err)
	}

	return v, nil
}

// Blob is the boundary of one point's confidence blob: Vertices holds one coordinate row per scan direction, each at the
// radius (in the layout's first two dimensions) where moving the point
// there alone raises stress by StressDiff above the projection's current
// stress.
type Blob struct {
	Point    int
	Vertices [][]float64
}

// Blobs traces, for every point in points, the boundary where moving that
// point alone (all others held fixed) raises stress by stressDiff above
// p's current stress. dirs evenly-spaced directions in the layout's first
// two coordinates are scanned (other coordinates held at the point's own
// value); each direction's radius is located by bisection to within
// precision; a direction along which stress never reaches the target
// within 60 radius doublings (from 0.01) gets its vertex at the end of that
// search. A point with a NaN layout row (disconnected) is skipped: it has
// no blob.
func Blobs(c *chart.Chart, p *chart.Projection, stressDiff float64, points []int, dirs int, precision float64) ([]Blob, error) {
	if p.NumberOfDimensions() < 2 {
		return nil, fmt.Errorf("relax.Blobs: %w", ErrBlobDimension)
	}

	td, err := stress.BuildTableDistances(c, p, true)
	if err != nil {
		return nil, fmt.Errorf("relax.Blobs: %w", err)
	}
	st := stress.New(td, p)
	base, err := st.Value(p.Layout())
	if err != nil {
		return nil, fmt.Errorf("relax.Blobs: %w", err)
	}
	target := base + stressDiff

	out := make([]Blob, 0, len(points))
	for _, pt := range points {
		row, err := p.Layout().Row(pt)
		if err != nil {
			return nil, fmt.Errorf("relax.Blobs: %w", err)
		}
		if anyNaN(row) {
			continue
		}

		verts := make([][]float64, dirs)
		for d := 0; d < dirs; d++ {
			theta := 2 * math.Pi * float64(d) / float64(dirs)
			direction := []float64{math.Cos(theta), math.Sin(theta)}
			radius, err := bisectRadius(st, p, pt, row, direction, target, precision)
			if err != nil {
				return nil, fmt.Errorf("relax.Blobs: %w", err)
			}
			vertex := append([]float64(nil), row...)
			vertex[0] += radius * direction[0]
			vertex[1] += radius * direction[1]
			verts[d] = vertex
		}
		out = append(out, Blob{Point: pt, Vertices: verts})
	}

	return out, nil
}

func bisectRadius(st *stress.Stress, p *chart.Projection, pt int, base []float64, direction []float64, target, precision float64) (float64, error) {
	lo, hi := 0.0, 0.01
	reached := false
	for i := 0; i < 60; i++ {
		v, err := stressAtRadius(st, p, pt, base, direction, hi)
		if err != nil {
			return 0, err
		}
		if v >= target {
			reached = true
			break
		}
		lo = hi
		hi *= 2
	}
	if !reached {
		return hi, nil
	}
	for hi-lo > precision {
		mid := (lo + hi) / 2
		v, err := stressAtRadius(st, p, pt, base, direction, mid)
		if err != nil {
			return 0, err
		}
		if v >= target {
			hi = mid
		} else {
			lo = mid
		}
	}

	return hi, nil
}

func stressAtRadius(st *stress.Stress, p *chart.Projection, pt int, base []float64, direction []float64, r float64) (float64, error) {
	coords := append([]float64(nil), base...)
	coords[0] += r * direction[0]
	coords[1] += r * direction[1]

	return StressWithMovedPoint(st, p, pt, coords)
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
