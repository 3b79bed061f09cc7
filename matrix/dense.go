package matrix

import "fmt"

// denseErrorf wraps an underlying error with Dense method context, e.g.
// "Dense.At(3,7): matrix: index out of bounds".
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a row-major matrix of float64 values. r is rows, c is columns,
// and data holds r*c elements in row-major order: data[i*c+j] == element(i,j).
type Dense struct {
	r, c int
	data []float64
}

// NewDense creates an r x c Dense matrix initialized to zeros.
// Complexity: O(r*c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewDenseFromRows builds a Dense from a slice of equal-length rows.
// Returns ErrInvalidDimensions if rows is empty, or ErrDimensionMismatch if
// row lengths differ.
func NewDenseFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimensions
	}
	c := len(rows[0])
	d, err := NewDense(len(rows), c)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != c {
			return nil, ErrDimensionMismatch
		}
		copy(d.data[i*c:(i+1)*c], row)
	}

	return d, nil
}

// Rows returns the number of rows. Complexity: O(1).
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns. Complexity: O(1).
func (m *Dense) Cols() int { return m.c }

// indexOf computes the flat index for (row, col), bounds-checked.
func (m *Dense) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r {
		return 0, denseErrorf("At", row, col, ErrIndexOutOfBounds)
	}
	if col < 0 || col >= m.c {
		return 0, denseErrorf("At", row, col, ErrIndexOutOfBounds)
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col). Complexity: O(1).
func (m *Dense) At(row, col int) (float64, error) {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// MustAt is At without the error return, for call sites that already know
// the index is in range (e.g. loops bounded by Rows()/Cols()).
func (m *Dense) MustAt(row, col int) float64 {
	return m.data[row*m.c+col]
}

// Set assigns value v at (row, col). Complexity: O(1).
func (m *Dense) Set(row, col int, v float64) error {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return err
	}
	m.data[idx] = v

	return nil
}

// MustSet is Set without the error return; see MustAt.
func (m *Dense) MustSet(row, col int, v float64) {
	m.data[row*m.c+col] = v
}

// Row returns a copy of row i. Complexity: O(cols).
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf("Row", i, 0, ErrIndexOutOfBounds)
	}
	out := make([]float64, m.c)
	copy(out, m.data[i*m.c:(i+1)*m.c])

	return out, nil
}

// SetRow overwrites row i with the contents of row (len(row) must equal Cols()).
func (m *Dense) SetRow(i int, row []float64) error {
	if i < 0 || i >= m.r {
		return denseErrorf("SetRow", i, 0, ErrIndexOutOfBounds)
	}
	if len(row) != m.c {
		return ErrDimensionMismatch
	}
	copy(m.data[i*m.c:(i+1)*m.c], row)

	return nil
}

// Clone returns a deep copy of the Dense matrix. Complexity: O(r*c).
func (m *Dense) Clone() *Dense {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)

	return &Dense{r: m.r, c: m.c, data: cp}
}

// String implements fmt.Stringer for debugging.
func (m *Dense) String() string {
	s := ""
	for i := 0; i < m.r; i++ {
		s += fmt.Sprintf("%v\n", m.data[i*m.c:(i+1)*m.c])
	}

	return s
}
