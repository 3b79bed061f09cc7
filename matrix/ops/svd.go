package ops

import (
	"fmt"
	"math"

	"github.com/acorg/acmacs-chart-n/matrix"
)

// SVD computes a singular value decomposition of a square D x D matrix M
// such that M = U * diag(S) * Vt, with S sorted descending.
// Procrustes only ever calls this on the small D x D matrix
// YtJX / XtJY, D being the map's dimensionality (typically 2-5), so the
// O(D^3) EigenSymmetric-based construction below is appropriate: V and its
// eigenvalues come from EigenSymmetric(MtM); singular values are the square
// roots; U's columns are M*v_i/s_i for nonzero singular values, with any
// remaining (rank-deficient) columns completed to an orthonormal basis by
// Gram-Schmidt against the standard basis.
// Complexity: O(D^3).
func SVD(M *matrix.Dense) (U, S, Vt *matrix.Dense, err error) {
	n := M.Rows()
	if n != M.Cols() {
		return nil, nil, nil, fmt.Errorf("SVD: non-square %dx%d: %w", n, M.Cols(), matrix.ErrNotSquare)
	}

	mtm, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += M.MustAt(k, i) * M.MustAt(k, j)
			}
			mtm.MustSet(i, j, sum)
		}
	}

	eigs, V, eigErr := EigenSymmetric(mtm, 1e-12, 200)
	if eigErr != nil {
		return nil, nil, nil, fmt.Errorf("SVD: %w", eigErr)
	}

	singular := make([]float64, n)
	for i, lambda := range eigs {
		if lambda < 0 {
			lambda = 0
		}
		singular[i] = math.Sqrt(lambda)
	}

	uCols := make([][]float64, n)
	const tol = 1e-9
	for i := 0; i < n; i++ {
		if singular[i] <= tol {
			continue
		}
		vi := make([]float64, n)
		for r := 0; r < n; r++ {
			vi[r] = V.MustAt(r, i)
		}
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			var sum float64
			for c := 0; c < n; c++ {
				sum += M.MustAt(r, c) * vi[c]
			}
			col[r] = sum / singular[i]
		}
		uCols[i] = col
	}
	completeOrthonormalColumns(uCols, n)

	U, err = matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := 0; i < n; i++ {
		for r := 0; r < n; r++ {
			U.MustSet(r, i, uCols[i][r])
		}
	}

	S, err = matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := 0; i < n; i++ {
		S.MustSet(i, i, singular[i])
	}

	Vt, err = matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			Vt.MustSet(i, j, V.MustAt(j, i))
		}
	}

	return U, S, Vt, nil
}

// completeOrthonormalColumns fills any nil entry of cols (each a length-n
// vector, or nil if not yet assigned) with a vector orthonormal to every
// already-assigned column, via Gram-Schmidt against the standard basis.
func completeOrthonormalColumns(cols [][]float64, n int) {
	have := make([][]float64, 0, n)
	for _, c := range cols {
		if c != nil {
			have = append(have, c)
		}
	}
	for i := range cols {
		if cols[i] != nil {
			continue
		}
		candidate := gramSchmidtNext(have, n)
		cols[i] = candidate
		have = append(have, candidate)
	}
}

// gramSchmidtNext returns a unit vector orthogonal to every vector in have,
// trying the standard basis vectors e_0, e_1, ... in order and returning the
// first whose residual after projection is not negligible.
func gramSchmidtNext(have [][]float64, n int) []float64 {
	for k := 0; k < n; k++ {
		v := make([]float64, n)
		v[k] = 1.0
		for _, h := range have {
			dot := 0.0
			for i := 0; i < n; i++ {
				dot += v[i] * h[i]
			}
			for i := 0; i < n; i++ {
				v[i] -= dot * h[i]
			}
		}
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm > 1e-9 {
			for i := range v {
				v[i] /= norm
			}

			return v
		}
	}

	// Unreachable for a well-formed orthonormal `have` set of size < n.
	v := make([]float64, n)
	if n > 0 {
		v[0] = 1.0
	}

	return v
}
