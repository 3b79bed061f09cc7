package procrustes

import "errors"

var (
	// ErrDimensionMismatch indicates the two projections have different
	// dimensionality.
	ErrDimensionMismatch = errors.New("procrustes: projections have different dimensionality")

	// ErrNoCommonPoints indicates an empty common-point pair list.
	ErrNoCommonPoints = errors.New("procrustes: no common points given")

	// ErrDegenerateScale indicates the denominator of the optimal-scale
	// formula (tr(YtJY)) was zero — the secondary common points are
	// coincident and no meaningful scale can be computed.
	ErrDegenerateScale = errors.New("procrustes: degenerate common points, cannot compute scale")
)
