// Package serumcircle computes the coverage radius around a serum within
// which antigens are considered protected at a given fold-drop: a theoretical radius from the homologous titer alone, and
// an empirical radius that best separates protected from unprotected
// antigens by map distance.
//
// Grounded on original_source/cc/serum-circle.cc for the theoretical-radius
// failure modes and the candidate-radius sweep, and on stress/table_distances.go
// for reading projection coordinates and titers off a Chart/Projection pair.
package serumcircle
