// Package diagnostics computes per-titer error lines: for every antigen/serum pair the titer table implies a distance
// target for, the signed residual between the map distance and that
// target, plus a color channel for downstream visualization.
//
// Grounded on stress/table_distances.go's TableDistances records (the
// residual is map distance minus Record.Target) and on the Euclidean
// distance helper pattern used by serumcircle.
package diagnostics
