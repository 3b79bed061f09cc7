// Package stress builds the per-cell distance targets a Chart/Projection
// pair implies (TableDistances) and evaluates the antigenic-map stress
// objective and its analytic gradient against a Layout.
//
// Grounded on original_source/cc/stress.hh for the sigmoid-weighted
// censored penalty and the gradient's zero-distance tie-break, and on
// lvlath/matrix/dense.go for the Layout accessor contract the gradient
// writes into.
package stress
