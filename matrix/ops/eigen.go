// Package ops provides the linear-algebra primitives layered on top of
// matrix.Dense: Jacobi eigendecomposition (used directly for PCA-based
// dimension annealing and indirectly, via EigenSymmetric(MᵀM), for the
// Procrustes SVD).
package ops

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/acorg/acmacs-chart-n/matrix"
)

// ErrNotSymmetric is returned when EigenSymmetric is given a non-symmetric matrix.
var ErrNotSymmetric = errors.New("ops: matrix is not symmetric")

// ErrEigenFailed is returned if the Jacobi sweep does not converge within maxIter.
var ErrEigenFailed = errors.New("ops: eigen decomposition did not converge")

// EigenSymmetric performs Jacobi eigenvalue decomposition on a symmetric
// matrix m. It returns eigenvalues and a matrix Q whose columns are the
// corresponding eigenvectors, sorted by descending eigenvalue.
// tol is the convergence threshold for off-diagonal magnitude; maxIter caps
// the number of sweeps.
// Complexity: O(n^3) per sweep, worst case O(maxIter*n^3); memory O(n^2).
func EigenSymmetric(m *matrix.Dense, tol float64, maxIter int) ([]float64, *matrix.Dense, error) {
	n := m.Rows()
	if n != m.Cols() {
		return nil, nil, fmt.Errorf("EigenSymmetric: non-square %dx%d: %w", n, m.Cols(), matrix.ErrNotSquare)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.MustAt(i, j)-m.MustAt(j, i)) > tol {
				return nil, nil, ErrNotSymmetric
			}
		}
	}

	A := m.Clone()
	Q, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, fmt.Errorf("EigenSymmetric: %w", err)
	}
	for i := 0; i < n; i++ {
		Q.MustSet(i, i, 1.0)
	}
	if n < 2 {
		return []float64{A.MustAt(0, 0)}, Q, nil
	}

	var (
		iter   int
		p, q   int
		maxOff float64
	)
	for iter = 0; iter < maxIter; iter++ {
		maxOff, p, q = 0.0, 0, 1
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if off := math.Abs(A.MustAt(i, j)); off > maxOff {
					maxOff, p, q = off, i, j
				}
			}
		}
		if maxOff < tol {
			break
		}

		app, aqq, apq := A.MustAt(p, p), A.MustAt(q, q), A.MustAt(p, q)
		theta := (aqq - app) / (2 * apq)
		t := math.Copysign(1.0/(math.Abs(theta)+math.Sqrt(theta*theta+1)), theta)
		c := 1.0 / math.Sqrt(t*t+1)
		s := t * c

		for i := 0; i < n; i++ {
			if i == p || i == q {
				continue
			}
			aip, aiq := A.MustAt(i, p), A.MustAt(i, q)
			np, nq := c*aip-s*aiq, s*aip+c*aiq
			A.MustSet(i, p, np)
			A.MustSet(p, i, np)
			A.MustSet(i, q, nq)
			A.MustSet(q, i, nq)
		}
		A.MustSet(p, p, c*c*app-2*c*s*apq+s*s*aqq)
		A.MustSet(q, q, s*s*app+2*c*s*apq+c*c*aqq)
		A.MustSet(p, q, 0.0)
		A.MustSet(q, p, 0.0)

		for i := 0; i < n; i++ {
			qip, qiq := Q.MustAt(i, p), Q.MustAt(i, q)
			Q.MustSet(i, p, c*qip-s*qiq)
			Q.MustSet(i, q, s*qip+c*qiq)
		}
	}
	if iter == maxIter {
		return nil, nil, ErrEigenFailed
	}

	eigs := make([]float64, n)
	for i := 0; i < n; i++ {
		eigs[i] = A.MustAt(i, i)
	}

	sortEigenpairsDescending(eigs, Q)

	return eigs, Q, nil
}

// sortEigenpairsDescending reorders eigenvalues (and the matching columns of
// Q) so eigs[0] >= eigs[1] >= ... The Jacobi sweep above produces eigenpairs
// in no particular order; PCA and SVD both need the dominant components first.
func sortEigenpairsDescending(eigs []float64, Q *matrix.Dense) {
	n := len(eigs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return eigs[order[a]] > eigs[order[b]] })

	sortedEigs := make([]float64, n)
	sortedQ := Q.Clone()
	for newCol, oldCol := range order {
		sortedEigs[newCol] = eigs[oldCol]
		for row := 0; row < n; row++ {
			sortedQ.MustSet(row, newCol, Q.MustAt(row, oldCol))
		}
	}
	copy(eigs, sortedEigs)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			Q.MustSet(row, col, sortedQ.MustAt(row, col))
		}
	}
}
