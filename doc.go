// Package knnviz is an interactive playground for K-nearest-neighbor
// classification on a 2D canvas.
//
// Users place labeled training points (class A or B), choose K and place a
// query point. The query is classified by majority vote among its K nearest
// training points under Euclidean distance.
//
// # Quick Start
//
//	c := knnviz.New()
//	class, ok, err := c.Predict(ctx, []model.LabeledPoint{
//	    {X: 0, Y: 0, Class: model.ClassA},
//	    {X: 10, Y: 10, Class: model.ClassB},
//	}, 1, model.Point{X: 1, Y: 1})
//	// class == model.ClassA, ok == true
//
// An empty training set yields no prediction (ok == false) rather than an
// error. The only error is a non-positive K.
//
// # Packages
//
//   - classifier: the pure prediction routine (neighbors, tally, tie-break)
//   - session: explicit application state (training set, K, current class, query)
//   - server: HTTP API and the embedded canvas page
//   - render: SVG rendering of a session
//
// # Observability
//
// Classifier accepts a Logger (log/slog) and a MetricsCollector. The server
// ships a Prometheus-backed collector.
package knnviz
