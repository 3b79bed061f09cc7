// Package relax implements the optimizer that minimizes a Stress objective
// over a Projection's layout (Optimizer, Relax), the multi-start and
// dimension-annealing driver that produces a Chart's set of projections
// (MultiStart), and the Projection-level operations built directly on top
// of the optimizer: StressWithMovedPoint (GridTest's cheap probe), Blobs
// (confidence blobs), and AvidityTest (cross-validating avidity adjusts).
//
// The optimizer loop's shape is grounded on lvlath/tsp/two_opt.go:
// deterministic behavior given a seed, a flattened coordinate buffer so the
// hot gradient-evaluation loop isn't paying *matrix.Dense method overhead on
// every access, and a soft iteration budget rather than a hard per-step
// deadline check. Dimension annealing's PCA step reuses
// matrix/ops/eigen.go's EigenSymmetric by way of ops.PCAProject.
package relax
