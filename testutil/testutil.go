package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/knnviz/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// OddK returns a random odd k in [1, maxK].
func (r *RNG) OddK(maxK int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 2*r.rand.Intn((maxK+1)/2) + 1
}

// Point returns a random point in [0,width) x [0,height).
func (r *RNG) Point(width, height float64) model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Point{
		X: r.rand.Float64() * width,
		Y: r.rand.Float64() * height,
	}
}

// Class returns ClassA or ClassB with equal probability.
func (r *RNG) Class() model.Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Classes[r.rand.Intn(len(model.Classes))]
}

// TrainingSet generates num randomly labeled points in [0,width) x [0,height).
// Locks only once per call.
func (r *RNG) TrainingSet(num int, width, height float64) []model.LabeledPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]model.LabeledPoint, num)
	for i := range points {
		points[i] = model.LabeledPoint{
			X:     r.rand.Float64() * width,
			Y:     r.rand.Float64() * height,
			Class: model.Classes[r.rand.Intn(len(model.Classes))],
		}
	}

	return points
}

// GridTrainingSet generates points on an integer grid so that many of them
// share the same distance to a grid-aligned query. Useful for exercising
// distance ties.
func (r *RNG) GridTrainingSet(num, side int) []model.LabeledPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]model.LabeledPoint, num)
	for i := range points {
		points[i] = model.LabeledPoint{
			X:     float64(r.rand.Intn(side)),
			Y:     float64(r.rand.Intn(side)),
			Class: model.Classes[r.rand.Intn(len(model.Classes))],
		}
	}

	return points
}

// ReferencePredict is a brute-force predictor used as ground truth.
//
// It repeatedly picks the closest remaining point (earliest index on equal
// distance) instead of sorting, and counts votes in first-encountered order
// with the first-seen tie-break.
func ReferencePredict(points []model.LabeledPoint, k int, query model.Point) (model.Class, bool) {
	if len(points) == 0 {
		return model.ClassNone, false
	}

	used := make([]bool, len(points))
	var order []model.Class
	counts := make(map[model.Class]int)

	for range min(k, len(points)) {
		best := -1
		bestDist := math.Inf(1)
		for i, p := range points {
			if used[i] {
				continue
			}
			// Distance measured from the training point to the query.
			d := math.Sqrt((p.X-query.X)*(p.X-query.X) + (p.Y-query.Y)*(p.Y-query.Y))
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		used[best] = true

		c := points[best].Class
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}

	winner := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[winner] {
			winner = c
		}
	}
	return winner, true
}
