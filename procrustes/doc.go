// Package procrustes aligns one Projection onto another over a set of
// common points: a rotation/reflection (and, optionally, a uniform scale)
// plus a translation that minimizes the residual between the transformed
// secondary layout and the primary one.
//
// Grounded on matrix/ops/svd.go (SVD via EigenSymmetric(MᵀM)) for the
// rotation step and original_source/cc/procrustes.cc for the centered-
// matrix/trace formulas. The same cross-product matrix XᵀJY is used with
// and without scaling.
package procrustes
