package serumcircle

import "errors"

var (
	// ErrNonRegularHomologousTiter indicates the homologous antigen-serum
	// titer is not a plain Regular measurement, so no theoretical radius
	// can be derived from it.
	ErrNonRegularHomologousTiter = errors.New("serumcircle: homologous titer is not regular")

	// ErrTiterTooLow indicates the protection boundary
	// (homologous_titer - fold) is at or below zero.
	ErrTiterTooLow = errors.New("serumcircle: homologous titer too low for requested fold")

	// ErrNoAntigens indicates an empty antigen list was given for an
	// empirical-radius computation.
	ErrNoAntigens = errors.New("serumcircle: no antigens given")
)
