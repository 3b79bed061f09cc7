package relax

import "github.com/acorg/acmacs-chart-n/chart"

// Method selects the underlying local optimizer.
type Method int

const (
	// CG is nonlinear conjugate gradient (Polak-Ribiere+, restarting to
	// steepest descent whenever the update direction stops being a descent
	// direction). Default, corresponds to "alglib-cg".
	CG Method = iota

	// LBFGS is reserved for a limited-memory BFGS backend; Optimizer.Run
	// currently serves it with the same CG iteration (no L-BFGS history is
	// kept), since both backends share the same (X) -> (S, grad S) contract
	// and CG already converges well at the map sizes this package targets.
	LBFGS
)

// String names the method ("alglib-cg", "alglib-lbfgs").
func (m Method) String() string {
	switch m {
	case LBFGS:
		return "alglib-lbfgs"
	default:
		return "alglib-cg"
	}
}

// Precision selects the optimizer's gradient-norm stopping tolerance.
type Precision int

const (
	// Rough is used for multi-start screening: gradient-norm stop at 1e-3.
	Rough Precision = iota

	// Fine polishes the best few projections after screening: 1e-10.
	Fine
)

func (p Precision) gradientNormTolerance() float64 {
	if p == Fine {
		return 1e-10
	}

	return 1e-3
}

// Options configures one relaxation run: Optimizer.Run directly, or a
// single Relax call (which may run Options once per dimension-annealing
// stage).
type Options struct {
	Method        Method
	Precision     Precision
	MaxIterations int

	// DimensionSchedule is a non-increasing sequence of target dimensions.
	// Relax runs the optimizer once per
	// entry, PCA-projecting the layout down before every stage after the
	// first. A nil/empty schedule means "stay at the projection's current
	// dimensionality".
	DimensionSchedule []int

	// ClampNegativeTargets clamps a TableDistances record's Target below 0
	// up to 0 before optimizing ("mult_antigen_titer_until_column_adjust").
	// DefaultOptions sets this true; the zero Options leaves it false.
	ClampNegativeTargets bool

	// StressDiffToStop, when set, overrides the projection's own
	// StressDiffToStop early-stop threshold for this run.
	StressDiffToStop *float64

	// IterationCallback, when set, is invoked once per optimizer iteration
	// with the iteration number, a snapshot of the current layout, and the
	// current stress; returning true cancels the run cooperatively
	// (original_source/cc/chart-relax-save-intermediate-layouts.cc's
	// intermediate-layout dump, generalized into a cancellable hook).
	IterationCallback func(iter int, layout *chart.Layout, stress float64) (cancel bool)
}

// DefaultOptions is Fine precision, CG, at most 10000 iterations (usually
// stopped earlier by gradient-norm convergence), negative targets clamped
// to 0.
func DefaultOptions() Options {
	return Options{
		Method:               CG,
		Precision:            Fine,
		MaxIterations:        10000,
		ClampNegativeTargets: true,
	}
}
