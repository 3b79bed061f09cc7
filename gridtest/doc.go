// Package gridtest implements the per-point stress-landscape scan that
// detects trapped and hemisphering antigens/sera: points whose current
// position is a poor local optimum that plain gradient relaxation cannot
// escape.
//
// The scan-then-classify loop shape is grounded on lvlath/tsp/two_opt.go
// (a bounded local search that records the best candidate seen and
// classifies the outcome against fixed thresholds); the bounding-area,
// grid-step, and hemisphering-threshold parameters follow
// original_source/cc/grid-test.hh and chart-grid-test.cc. Per-point scans
// are independent and run on a worker pool via golang.org/x/sync/errgroup.
package gridtest
