package resolutiontest

import "errors"

var (
	// ErrNoDimensions indicates Options.Dimensions was empty.
	ErrNoDimensions = errors.New("resolutiontest: dimensions must not be empty")

	// ErrNoProportions indicates Options.Proportions was empty.
	ErrNoProportions = errors.New("resolutiontest: proportions must not be empty")

	// ErrNoReplicates indicates Options.Replicates was not positive.
	ErrNoReplicates = errors.New("resolutiontest: replicates must be positive")
)
