package chartio

import "errors"

// ErrMalformed indicates the document is missing or carries an invalid
// value for a field the CORE requires.
var ErrMalformed = errors.New("chartio: malformed document")
