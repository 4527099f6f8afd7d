package distance

import (
	"math"

	"github.com/hupe1980/knnviz/model"
)

// SquaredEuclidean calculates (ax-bx)^2 + (ay-by)^2.
func SquaredEuclidean(a, b model.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Euclidean calculates sqrt((ax-bx)^2 + (ay-by)^2).
// It is evaluated as written, not via math.Hypot, so neighbor order matches
// the formula bit for bit.
func Euclidean(a, b model.Point) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}
