// Package merge matches antigens and sera between two charts and combines
// them into one: CommonMatch scores and greedily
// pairs candidates sharing name/reassortant/annotations, and Merge builds
// the combined Chart, carrying over projections under one of five
// placement strategies.
//
// Grounded on original_source/cc/merge.cc and original_source/cc/chart-merge.cc
// for the score categories, match_level gating, and projection-merge
// strategies, and on chart/remove.go's compaction-map idiom for re-indexing
// point sets through the merge.
package merge
