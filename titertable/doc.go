// Package titertable implements the logical antigen x serum titer mapping
// (TiterTable) and the per-serum ColumnBases derived from it.
//
// A table is stored either dense (row-major, one titer.Titer per cell) or
// sparse (map-of-map, only present titers kept) — grounded on
// lvlath/matrix/dense.go for the dense bounds-checked accessor contract and
// on lvlath/core/adjacency_list.go's map-of-map idiom for the sparse
// variant. A table optionally carries layers: earlier source tables kept
// around for merge provenance: see Table.Layer and NumberOfLayers.
//
// ColumnBases reduces a table to one float64 per serum via a
// max-over-antigens-of-logged_for_column_bases reduction, in the style of
// lvlath/matrix's per-column statistics helpers. This package keeps no
// cache of the result.
package titertable
