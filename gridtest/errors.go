package gridtest

import "errors"

// ErrInvalidGridStep indicates Options.GridStep was not positive.
var ErrInvalidGridStep = errors.New("gridtest: grid step must be > 0")
