// Package chart owns the in-memory antigenic map data model: Antigen,
// Serum, Projection, PlotSpec, and the Chart that aggregates them around a
// titertable.Table.
//
// Grounded on lvlath/core/types.go for the functional-options constructor
// and RWMutex-guarded mutable-state idiom, and on
// original_source/cc/chart.hh/chart.cc for the field set, the set_homologous
// policy table, and chart.Description()'s format.
package chart
