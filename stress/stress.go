package stress

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/matrix"
)

// SigmoidSlope is the steepness of the soft one-sided penalty used for
// censored (Less/More) titers.
const SigmoidSlope = 10.0

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x*SigmoidSlope)) }

// Stress evaluates the antigenic-map objective and its gradient for a
// fixed (Chart, Projection) pair's TableDistances. Value is pure and
// reentrant: safe to call concurrently so long as each call owns its
// Layout — Stress itself holds
// no mutable state.
type Stress struct {
	distances *TableDistances
	proj      *chart.Projection
}

// New builds a Stress evaluator from a TableDistances and the Projection
// it was built against (used only for its point-set masks: unmovable,
// unmovable-in-last-dimension; disconnected points never produced a
// record in the first place).
func New(distances *TableDistances, proj *chart.Projection) *Stress {
	return &Stress{distances: distances, proj: proj}
}

func dist(layout *chart.Layout, i, j int) (float64, []float64, error) {
	ri, err := layout.Row(i)
	if err != nil {
		return 0, nil, err
	}
	rj, err := layout.Row(j)
	if err != nil {
		return 0, nil, err
	}
	diff := make([]float64, len(ri))
	var sumSq float64
	for d := range ri {
		diff[d] = ri[d] - rj[d]
		sumSq += diff[d] * diff[d]
	}

	return math.Sqrt(sumSq), diff, nil
}

// Value returns S(layout): the sum over every TableDistances record of its
// kind's penalty contribution.
func (st *Stress) Value(layout *chart.Layout) (float64, error) {
	var total float64
	for _, r := range st.distances.records {
		d, _, err := dist(layout, r.I, r.J)
		if err != nil {
			return 0, fmt.Errorf("stress.Value: %w", err)
		}
		if math.IsNaN(d) {
			continue // a disconnected endpoint's NaN row; never reached when
			// BuildTableDistances has correctly excluded it, kept as a guard.
		}
		total += recordContribution(r.Kind, d, r.Target)
	}

	return total, nil
}

func recordContribution(kind Kind, d, t float64) float64 {
	delta := d - t
	switch kind {
	case Less:
		return delta * delta * sigmoid(t-d+1)
	case More:
		return delta * delta * sigmoid(d-t-1)
	default: // Regular, Dodgy (treated as Regular once included at all)
		return delta * delta
	}
}

// Gradient returns partial S / partial X, a P x D matrix matching layout's
// shape. Points in the Projection's unmovable set get a zero gradient row
// (they still contributed to Value); points in unmovable-in-last-dimension
// get their last coordinate zeroed; a record whose map distance is exactly
// 0 contributes zero gradient (direction undefined, tie-breaking
// convention).
func (st *Stress) Gradient(layout *chart.Layout) (*matrix.Dense, error) {
	p, d := layout.Rows(), layout.Cols()
	grad, err := matrix.NewDense(p, d)
	if err != nil {
		return nil, fmt.Errorf("stress.Gradient: %w", err)
	}

	for _, r := range st.distances.records {
		dd, diff, err := dist(layout, r.I, r.J)
		if err != nil {
			return nil, fmt.Errorf("stress.Gradient: %w", err)
		}
		if dd == 0 || math.IsNaN(dd) {
			continue
		}
		w, wDeriv := recordWeightAndDerivative(r.Kind, dd, r.Target)
		delta := dd - r.Target
		// d/dX_i of w*(d-t)^2 = w * 2*(d-t) * (diff/d) + wDeriv*(d-t)^2 * (diff/d)
		coeff := (2*w*delta + wDeriv*delta*delta) / dd
		for k := 0; k < d; k++ {
			contribution := coeff * diff[k]
			addTo(grad, r.I, k, contribution)
			addTo(grad, r.J, k, -contribution)
		}
	}

	zeroMasked(grad, st.proj)

	return grad, nil
}

// recordWeightAndDerivative returns the record's weight w (the sigmoid for
// censored kinds, 1 for Regular/Dodgy) and dw/dd, needed so the gradient
// includes the sigmoid's own derivative term.
func recordWeightAndDerivative(kind Kind, d, t float64) (w, wDeriv float64) {
	switch kind {
	case Less:
		x := t - d + 1
		s := sigmoid(x)

		return s, -SigmoidSlope * s * (1 - s)
	case More:
		x := d - t - 1
		s := sigmoid(x)

		return s, SigmoidSlope * s * (1 - s)
	default:
		return 1, 0
	}
}

func addTo(m *matrix.Dense, row, col int, v float64) {
	m.MustSet(row, col, m.MustAt(row, col)+v)
}

func zeroMasked(grad *matrix.Dense, proj *chart.Projection) {
	if proj == nil {
		return
	}
	for _, i := range proj.UnmovablePoints() {
		for k := 0; k < grad.Cols(); k++ {
			grad.MustSet(i, k, 0)
		}
	}
	for _, i := range proj.UnmovableInLastDimensionPoints() {
		grad.MustSet(i, grad.Cols()-1, 0)
	}
	for _, i := range proj.DisconnectedPoints() {
		for k := 0; k < grad.Cols(); k++ {
			grad.MustSet(i, k, 0)
		}
	}
}
