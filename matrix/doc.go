// Package matrix provides the dense coordinate matrix shared by every
// numerical component of acmacs-chart-n: a Layout is a *Dense of shape
// (N_ag+N_sr) x D, stress gradients are written row-by-row into one, and
// matrix/ops layers PCA and Procrustes-grade linear algebra on top.
//
// Dense stores its elements in a flat row-major slice for cache-friendly
// access in the stress kernel's inner loops. Every error-returning indexing
// method is bounds-checked rather than panicking: callers that accidentally
// address outside [0,Rows())x[0,Cols()) get a wrapped sentinel error, not a
// crash. MustAt and MustSet skip that check.
package matrix
