// Package distance provides distance calculations on 2D canvas points.
//
// Only unweighted Euclidean distance in raw pixel units is supported; there is
// no normalization and no alternative metric.
//
// # Usage
//
//	d := distance.Euclidean(a, b)
//	d2 := distance.SquaredEuclidean(a, b) // same ordering, no sqrt
package distance
