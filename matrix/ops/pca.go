package ops

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/matrix"
)

// PCAProject mean-centers layout's finite rows, forms the D x D Gram matrix
// of the centered coordinates, and returns the projection of every row
// (finite or not) onto the top outDim principal components, plus the mean
// used for centering. Rows containing a NaN (disconnected points, see
// chart.Layout) are excluded from the mean/Gram computation but are still
// projected — a NaN coordinate stays NaN in every output column because
// projection is a linear combination that touches every input column.
// outDim must be in [1, layout.Cols()].
// Complexity: O(P*D^2 + D^3).
func PCAProject(layout *matrix.Dense, outDim int) (*matrix.Dense, []float64, error) {
	p, d := layout.Rows(), layout.Cols()
	if outDim < 1 || outDim > d {
		return nil, nil, fmt.Errorf("PCAProject: outDim %d out of range [1,%d]: %w", outDim, d, matrix.ErrDimensionMismatch)
	}

	mean := make([]float64, d)
	finite := 0
	for i := 0; i < p; i++ {
		row, _ := layout.Row(i)
		if anyNaN(row) {
			continue
		}
		finite++
		for j, v := range row {
			mean[j] += v
		}
	}
	if finite > 0 {
		for j := range mean {
			mean[j] /= float64(finite)
		}
	}

	gram, err := matrix.NewDense(d, d)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < p; i++ {
		row, _ := layout.Row(i)
		if anyNaN(row) {
			continue
		}
		for a := 0; a < d; a++ {
			ca := row[a] - mean[a]
			for b := 0; b < d; b++ {
				cb := row[b] - mean[b]
				gram.MustSet(a, b, gram.MustAt(a, b)+ca*cb)
			}
		}
	}

	_, Q, err := EigenSymmetric(gram, 1e-12, 200)
	if err != nil {
		return nil, nil, fmt.Errorf("PCAProject: %w", err)
	}

	out, err := matrix.NewDense(p, outDim)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < p; i++ {
		row, _ := layout.Row(i)
		if anyNaN(row) {
			for k := 0; k < outDim; k++ {
				out.MustSet(i, k, math.NaN())
			}
			continue
		}
		for k := 0; k < outDim; k++ {
			var proj float64
			for a := 0; a < d; a++ {
				proj += (row[a] - mean[a]) * Q.MustAt(a, k)
			}
			out.MustSet(i, k, proj)
		}
	}

	return out, mean, nil
}

func anyNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
