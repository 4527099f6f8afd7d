// Package classifier implements K-nearest-neighbor classification of 2D points.
//
// A prediction is a pure function of the training set, k and the query:
//
//  1. An empty training set yields no prediction (absent), for any k.
//  2. The Euclidean distance from the query to every training point is computed.
//  3. Points are stably sorted by ascending distance and the first k are selected.
//     When k exceeds the training set size, every point is selected.
//  4. Votes are tallied per class in the order classes are first encountered,
//     walking the selected neighbors from nearest to farthest.
//  5. The class with the highest count wins. Equal counts are resolved by the
//     configured TieBreak (TieBreakFirstSeen by default).
//
// The training set is never modified; it is re-scanned on every call.
//
//	class, ok, err := classifier.Predict(points, 3, model.Point{X: 10, Y: 20})
package classifier
