// Package chartio is a native JSON import/export adapter for Chart: export
// then import yields an equivalent chart (same antigens, sera, titers,
// layers, forced column bases, plot spec and projections). Other chart file
// formats (ACD1, ACE, lispmds) are out of scope; JSON is the one concrete
// format this package implements.
//
// Uses github.com/json-iterator/go configured for standard-library
// compatibility rather than encoding/json directly, matching the
// dependency already present (indirectly) across the corpus.
package chartio
