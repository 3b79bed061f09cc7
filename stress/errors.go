package stress

import "errors"

// ErrDimensionMismatch is returned when a layout's shape disagrees with
// the chart/projection the TableDistances or Stress was built from.
var ErrDimensionMismatch = errors.New("stress: dimension mismatch")
