package relax

import "errors"

var (
	// ErrEmptySchedule indicates MultiStart was called with an empty
	// DimensionSchedule. Relax does not return it: an empty schedule there
	// means the projection's current dimensionality.
	ErrEmptySchedule = errors.New("relax: dimension schedule must not be empty")

	// ErrScheduleMismatch indicates a dimension schedule's first entry does
	// not match the projection's current dimensionality.
	ErrScheduleMismatch = errors.New("relax: first dimension-schedule entry must match the projection's current dimensionality")

	// ErrNoAttempts indicates MultiStartOptions.Attempts was not positive.
	ErrNoAttempts = errors.New("relax: attempts must be positive")

	// ErrBlobDimension indicates Blobs was asked to trace a projection with
	// fewer than 2 dimensions (a blob boundary needs a plane to walk).
	ErrBlobDimension = errors.New("relax: blobs require at least 2 dimensions")
)
