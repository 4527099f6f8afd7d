// Package testutil provides testing utilities for knnviz.
//
// This package is intended for use in tests only. It provides helpers for
// generating random training sets on a canvas and a brute-force reference
// predictor that ranks every point independently of package classifier.
//
// # Random Training Sets
//
//	rng := testutil.NewRNG(seed)
//	points := rng.TrainingSet(50, 600, 400)
//	query := rng.Point(600, 400)
//
// # Reference Prediction
//
//	class, ok := testutil.ReferencePredict(points, k, query)
package testutil
