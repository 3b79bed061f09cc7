package matrix

import "errors"

// Sentinel errors for the matrix package. Algorithms return these directly
// (or wrap with fmt.Errorf("%s: %w", ...) at a call-site boundary). Apart
// from the unchecked MustAt/MustSet, nothing in this package panics on a
// caller-triggered condition.
var (
	// ErrInvalidDimensions indicates requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrIndexOutOfBounds indicates a row or column index outside valid range.
	ErrIndexOutOfBounds = errors.New("matrix: index out of bounds")

	// ErrDimensionMismatch indicates two matrices have incompatible shapes for an operation.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNotSquare indicates a square matrix was required but the input wasn't.
	ErrNotSquare = errors.New("matrix: matrix is not square")

	// ErrNaNInf indicates a NaN or +/-Inf value where a finite value is required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")
)
