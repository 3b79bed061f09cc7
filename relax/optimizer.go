package relax

import (
	"fmt"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/stress"
)

// Optimizer minimizes a Stress objective over a fixed-shape Layout using
// nonlinear conjugate gradient: Polak-Ribiere-plus updates with a restart
// to steepest descent whenever the update direction stops being a descent
// direction, and a backtracking (Armijo) line search. Both LBFGS and CG
// methods are served by this loop (see Method).
type Optimizer struct {
	stress *stress.Stress
	opts   Options
}

// NewOptimizer builds an Optimizer for a precomputed Stress evaluator.
func NewOptimizer(st *stress.Stress, opts Options) *Optimizer {
	return &Optimizer{stress: st, opts: opts}
}

type evalPoint struct {
	x     []float64
	value float64
	grad  []float64
}

func (o *Optimizer) evalAt(x []float64, rows, cols int) (evalPoint, error) {
	layout, err := unflatten(x, rows, cols)
	if err != nil {
		return evalPoint{}, fmt.Errorf("relax.Optimizer: %w", err)
	}
	value, err := o.stress.Value(layout)
	if err != nil {
		return evalPoint{}, fmt.Errorf("relax.Optimizer: %w", err)
	}
	gradM, err := o.stress.Gradient(layout)
	if err != nil {
		return evalPoint{}, fmt.Errorf("relax.Optimizer: %w", err)
	}

	return evalPoint{x: x, value: value, grad: flatten(gradM)}, nil
}

// Run minimizes stress starting from layout, mutating layout in place with
// the final coordinates, and returns the final stress value. Iteration
// stops when the gradient norm falls below the Precision's tolerance, the
// stress improvement falls below an effective StressDiffToStop (if set),
// MaxIterations is reached (0 means unbounded), or IterationCallback
// requests cancellation.
func (o *Optimizer) Run(layout *chart.Layout) (float64, error) {
	rows, cols := layout.Rows(), layout.Cols()
	tol := o.opts.Precision.gradientNormTolerance()

	cur, err := o.evalAt(flatten(layout), rows, cols)
	if err != nil {
		return 0, err
	}
	dir := negate(cur.grad)

	for iter := 0; o.opts.MaxIterations <= 0 || iter < o.opts.MaxIterations; iter++ {
		if norm(cur.grad) < tol {
			break
		}

		next, improved, err := o.lineSearch(cur, dir, rows, cols)
		if err != nil {
			return 0, err
		}
		if !improved {
			// No step along dir reduced stress: dir was a bad search
			// direction (stale curvature information). Reset to steepest
			// descent and try once more before giving up for good.
			dir = negate(cur.grad)
			next, improved, err = o.lineSearch(cur, dir, rows, cols)
			if err != nil {
				return 0, err
			}
			if !improved {
				break
			}
		}

		diff := cur.value - next.value
		prevGrad := cur.grad
		cur = next

		if o.opts.IterationCallback != nil {
			snap, err := unflatten(cur.x, rows, cols)
			if err != nil {
				return 0, err
			}
			if o.opts.IterationCallback(iter, snap, cur.value) {
				break
			}
		}

		if o.opts.StressDiffToStop != nil && diff < *o.opts.StressDiffToStop {
			break
		}

		beta := polakRibiere(cur.grad, prevGrad)
		dir = addScaled(negate(cur.grad), dir, beta)
		if dot(dir, cur.grad) >= 0 {
			dir = negate(cur.grad)
		}
	}

	final, err := unflatten(cur.x, rows, cols)
	if err != nil {
		return 0, err
	}
	if err := copyInto(layout, final); err != nil {
		return 0, err
	}

	return cur.value, nil
}

// lineSearch performs backtracking (Armijo) search along dir from cur,
// halving the step each failed trial. improved is false if no trial within
// the step budget reduced the objective (dir is exhausted).
func (o *Optimizer) lineSearch(cur evalPoint, dir []float64, rows, cols int) (evalPoint, bool, error) {
	const (
		c1          = 1e-4
		maxHalvings = 50
	)
	slope := dot(cur.grad, dir)
	if slope >= 0 {
		return cur, false, nil
	}

	alpha := 1.0
	for i := 0; i < maxHalvings; i++ {
		trial, err := o.evalAt(addScaled(cur.x, dir, alpha), rows, cols)
		if err != nil {
			return evalPoint{}, false, err
		}
		if trial.value <= cur.value+c1*alpha*slope {
			return trial, true, nil
		}
		alpha *= 0.5
	}

	return cur, false, nil
}
