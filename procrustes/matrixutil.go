package procrustes

import "github.com/acorg/acmacs-chart-n/matrix"

// crossProduct returns AᵀB for row-lists A, B of equal length n and width
// dims, as a dims x dims Dense matrix.
func crossProduct(a, b [][]float64, dims int) (*matrix.Dense, error) {
	out, err := matrix.NewDense(dims, dims)
	if err != nil {
		return nil, err
	}
	for i := 0; i < dims; i++ {
		for j := 0; j < dims; j++ {
			var sum float64
			for k := range a {
				sum += a[k][i] * b[k][j]
			}
			out.MustSet(i, j, sum)
		}
	}

	return out, nil
}

func matMul(a, b *matrix.Dense) (*matrix.Dense, error) {
	out, err := matrix.NewDense(a.Rows(), b.Cols())
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < b.Cols(); j++ {
			var sum float64
			for k := 0; k < a.Cols(); k++ {
				sum += a.MustAt(i, k) * b.MustAt(k, j)
			}
			out.MustSet(i, j, sum)
		}
	}

	return out, nil
}

func transpose(m *matrix.Dense) (*matrix.Dense, error) {
	out, err := matrix.NewDense(m.Cols(), m.Rows())
	if err != nil {
		return nil, err
	}
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			out.MustSet(j, i, m.MustAt(i, j))
		}
	}

	return out, nil
}

func trace(m *matrix.Dense) float64 {
	var sum float64
	n := m.Rows()
	if m.Cols() < n {
		n = m.Cols()
	}
	for i := 0; i < n; i++ {
		sum += m.MustAt(i, i)
	}

	return sum
}

func scaleMatrix(m *matrix.Dense, s float64) *matrix.Dense {
	out := m.Clone()
	for i := 0; i < out.Rows(); i++ {
		for j := 0; j < out.Cols(); j++ {
			out.MustSet(i, j, out.MustAt(i, j)*s)
		}
	}

	return out
}

// vecMatMul returns v (as a 1xD row vector) times m (DxD).
func vecMatMul(v []float64, m *matrix.Dense) []float64 {
	out := make([]float64, m.Cols())
	for j := 0; j < m.Cols(); j++ {
		var sum float64
		for i := 0; i < m.Rows(); i++ {
			sum += v[i] * m.MustAt(i, j)
		}
		out[j] = sum
	}

	return out
}

func columnMean(rows [][]float64) []float64 {
	dims := len(rows[0])
	mean := make([]float64, dims)
	for _, row := range rows {
		for d, v := range row {
			mean[d] += v
		}
	}
	for d := range mean {
		mean[d] /= float64(len(rows))
	}

	return mean
}

func center(rows [][]float64, mean []float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		c := make([]float64, len(row))
		for d, v := range row {
			c[d] = v - mean[d]
		}
		out[i] = c
	}

	return out
}
