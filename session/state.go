package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/knnviz"
	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/model"
)

const (
	// MinK is the smallest selectable K.
	MinK = 1
	// MaxK is the largest selectable K.
	MaxK = 9
	// DefaultK is the K of a fresh State.
	DefaultK = 3
)

// State is the application state of one canvas.
type State struct {
	// Points is the training set in insertion order.
	Points []model.LabeledPoint `json:"points"`
	// K is the number of neighbors used for predictions.
	K int `json:"k"`
	// CurrentClass labels newly added training points.
	CurrentClass model.Class `json:"currentClass"`
	// Query is the point to classify, nil if none was placed yet.
	Query *model.Point `json:"query,omitempty"`
	// MaxPoints caps the training set. Zero means unlimited.
	MaxPoints int `json:"-"`
}

// NewState returns an empty State with K=DefaultK and class A selected.
func NewState() *State {
	return &State{
		Points:       []model.LabeledPoint{},
		K:            DefaultK,
		CurrentClass: model.ClassA,
	}
}

// ValidateK reports whether k is odd and within [MinK, MaxK].
func ValidateK(k int) error {
	if k < MinK || k > MaxK || k%2 == 0 {
		return fmt.Errorf("%w: %d is not an odd number in [%d,%d]", knnviz.ErrInvalidK, k, MinK, MaxK)
	}
	return nil
}

// AddPoint appends a training point at p labeled with CurrentClass.
func (s *State) AddPoint(p model.Point) (model.LabeledPoint, error) {
	if !p.Finite() {
		return model.LabeledPoint{}, fmt.Errorf("%w: %s", knnviz.ErrInvalidCoordinate, p)
	}
	if s.MaxPoints > 0 && len(s.Points) >= s.MaxPoints {
		return model.LabeledPoint{}, fmt.Errorf("%w: limit is %d", knnviz.ErrTooManyPoints, s.MaxPoints)
	}

	lp := p.Label(s.CurrentClass)
	s.Points = append(s.Points, lp)
	return lp, nil
}

// SetQuery places the query point, replacing any previous one.
func (s *State) SetQuery(p model.Point) error {
	if !p.Finite() {
		return fmt.Errorf("%w: %s", knnviz.ErrInvalidCoordinate, p)
	}
	s.Query = &p
	return nil
}

// SetClass selects the label for new training points.
func (s *State) SetClass(c model.Class) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", knnviz.ErrInvalidClass, c.String())
	}
	s.CurrentClass = c
	return nil
}

// SetK changes the neighbor count.
func (s *State) SetK(k int) error {
	if err := ValidateK(k); err != nil {
		return err
	}
	s.K = k
	return nil
}

// Clear removes all training points and the query point. The selected class
// and K are kept. It returns the number of removed training points.
func (s *State) Clear() int {
	removed := len(s.Points)
	s.Points = []model.LabeledPoint{}
	s.Query = nil
	return removed
}

// Snapshot returns a deep copy of s.
func (s *State) Snapshot() State {
	cp := *s
	cp.Points = slices.Clone(s.Points)
	if cp.Points == nil {
		cp.Points = []model.LabeledPoint{}
	}
	if s.Query != nil {
		q := *s.Query
		cp.Query = &q
	}
	return cp
}

// Classify classifies the query point against the training set. The result
// is absent when no query was placed or the training set is empty.
func (s *State) Classify(ctx context.Context, c *knnviz.Classifier) (classifier.Result, error) {
	if s.Query == nil {
		return classifier.Result{}, nil
	}
	return c.Classify(ctx, s.Points, s.K, *s.Query)
}
