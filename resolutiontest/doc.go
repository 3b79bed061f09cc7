// Package resolutiontest cross-validates a chart's mapping resolution by
// titer dropout: for every (dimension, proportion)
// pair, it drops that proportion of titers at random across a number of
// replicates, re-relaxes each replicate from the reduced table, and
// compares the predicted distance for every dropped cell against the
// distance the master (undropped) table implies.
//
// Grounded on original_source/cc/map-resolution-test.hh/.cc for the
// per-replicate orchestration and on relax.MultiStart/
// titertable.Table.SetProportionOfTitersToDontCare for the optimization and
// dropout steps respectively.
package resolutiontest
