package chart

import "errors"

// ErrChartReadOnly names the error for a mutation attempted on a read-only
// Chart view. Chart has no read-only mode, and no function in this module
// returns this error.
var ErrChartReadOnly = errors.New("chart: read-only")

// ErrInvalidData is returned for shape violations: a point list whose
// length disagrees with the titer table, a projection whose layout row
// count doesn't match N_ag+N_sr.
var ErrInvalidData = errors.New("chart: invalid data")

// ErrIndexOutOfBounds is returned when an antigen, serum, or projection
// index is outside the owning Chart's bounds.
var ErrIndexOutOfBounds = errors.New("chart: index out of bounds")
