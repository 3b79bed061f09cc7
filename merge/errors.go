package merge

import "errors"

var (
	// ErrDimensionMismatch indicates the two charts' projections used for
	// a Procrustes-based placement strategy have different dimensionality.
	ErrDimensionMismatch = errors.New("merge: projections have different dimensionality")

	// ErrNoProjection indicates a placement strategy needs a projection
	// from a chart that has none.
	ErrNoProjection = errors.New("merge: chart has no projections")

	// ErrInvalidMatchLevel indicates an unrecognized MatchLevel value.
	ErrInvalidMatchLevel = errors.New("merge: invalid match level")

	// ErrInvalidProjectionMergeType indicates an unrecognized
	// ProjectionMergeType value.
	ErrInvalidProjectionMergeType = errors.New("merge: invalid projection merge type")
)
