package titertable

import "errors"

// ErrIndexOutOfBounds is returned when an antigen, serum, or layer index is
// outside the table's bounds.
var ErrIndexOutOfBounds = errors.New("titertable: index out of bounds")

// ErrInvalidData is returned for shape violations: a layer whose dimensions
// don't match its parent, or a row passed to NewDenseFromRows of the wrong
// length.
var ErrInvalidData = errors.New("titertable: invalid data")
