// Package model defines core types used throughout knnviz.
//
// # Labels
//
//   - Class: the label of a training point (A or B). The zero value ClassNone
//     means "absent" and is what a prediction yields when nothing can be predicted.
//
// # Geometry
//
//   - Point: an unlabeled 2D coordinate in canvas pixel units (a query)
//   - LabeledPoint: a training point with its Class
//
// # Results
//
//   - Neighbor: a training point selected for a query, with its distance
//   - Vote: the number of selected neighbors carrying a given Class
package model
