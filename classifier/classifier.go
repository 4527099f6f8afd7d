package classifier

import (
	"cmp"
	"errors"
	"slices"

	"github.com/hupe1980/knnviz/distance"
	"github.com/hupe1980/knnviz/model"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// Result is the outcome of a classification.
type Result struct {
	// Class is the predicted label, or model.ClassNone when absent.
	Class model.Class `json:"class"`
	// Neighbors are the selected training points, nearest first.
	Neighbors []model.Neighbor `json:"neighbors"`
	// Votes are the per-class counts in first-encountered order.
	Votes []model.Vote `json:"votes"`
}

// Absent reports whether no prediction was possible.
func (r Result) Absent() bool {
	return r.Class == model.ClassNone
}

// Classifier predicts labels with a majority vote among the k nearest
// training points. It holds no state besides its options and is safe for
// concurrent use.
type Classifier struct {
	opts Options
}

// New creates a Classifier.
func New(optFns ...Option) *Classifier {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{opts: opts}
}

// TieBreak returns the configured tie-break policy.
func (c *Classifier) TieBreak() TieBreak {
	return c.opts.TieBreak
}

// Classify predicts the class of query and reports the neighbors and votes
// that led to it. An empty training set yields an absent Result and no error.
func (c *Classifier) Classify(points []model.LabeledPoint, k int, query model.Point) (Result, error) {
	if len(points) == 0 {
		return Result{}, nil
	}
	if k < 1 {
		return Result{}, ErrInvalidK
	}

	neighbors := Nearest(points, k, query)
	votes := Tally(neighbors)

	return Result{
		Class:     Elect(votes, c.opts.TieBreak),
		Neighbors: neighbors,
		Votes:     votes,
	}, nil
}

// Predict returns the predicted class of query. ok is false when the
// training set is empty.
func (c *Classifier) Predict(points []model.LabeledPoint, k int, query model.Point) (class model.Class, ok bool, err error) {
	res, err := c.Classify(points, k, query)
	if err != nil {
		return model.ClassNone, false, err
	}
	return res.Class, !res.Absent(), nil
}

var defaultClassifier = New()

// Classify is Classifier.Classify with DefaultOptions.
func Classify(points []model.LabeledPoint, k int, query model.Point) (Result, error) {
	return defaultClassifier.Classify(points, k, query)
}

// Predict is Classifier.Predict with DefaultOptions.
func Predict(points []model.LabeledPoint, k int, query model.Point) (model.Class, bool, error) {
	return defaultClassifier.Predict(points, k, query)
}

// Nearest returns the min(k, len(points)) training points closest to query,
// nearest first. Points at equal distance keep their training-set order.
func Nearest(points []model.LabeledPoint, k int, query model.Point) []model.Neighbor {
	if k < 1 || len(points) == 0 {
		return nil
	}

	neighbors := make([]model.Neighbor, len(points))
	for i, p := range points {
		neighbors[i] = model.Neighbor{
			Point:    p,
			Index:    i,
			Distance: distance.Euclidean(query, p.Point()),
		}
	}

	slices.SortStableFunc(neighbors, func(a, b model.Neighbor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	return neighbors[:min(k, len(neighbors))]
}

// Tally counts neighbors per class. Classes appear in the order they are
// first encountered, nearest neighbor first.
func Tally(neighbors []model.Neighbor) []model.Vote {
	votes := make([]model.Vote, 0, len(model.Classes))
	for _, n := range neighbors {
		i := slices.IndexFunc(votes, func(v model.Vote) bool { return v.Class == n.Point.Class })
		if i < 0 {
			votes = append(votes, model.Vote{Class: n.Point.Class, Count: 1})
			continue
		}
		votes[i].Count++
	}
	return votes
}

// Elect returns the class with the highest count, resolving ties with tb.
// It returns model.ClassNone for an empty tally.
func Elect(votes []model.Vote, tb TieBreak) model.Class {
	if len(votes) == 0 {
		return model.ClassNone
	}

	winner := votes[0]
	for _, v := range votes[1:] {
		switch tb {
		case TieBreakLastSeen:
			// The running winner survives only while strictly ahead.
			if !(winner.Count > v.Count) {
				winner = v
			}
		default:
			if v.Count > winner.Count {
				winner = v
			}
		}
	}
	return winner.Class
}
