package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidClass is returned when a class label cannot be parsed.
var ErrInvalidClass = errors.New("invalid class")

// Class is the label attached to a training point.
type Class uint8

const (
	// ClassNone is the zero value. It never labels a training point and is
	// returned as the "absent" prediction.
	ClassNone Class = iota
	ClassA
	ClassB
)

// Classes lists the valid labels in enumeration order.
var Classes = []Class{ClassA, ClassB}

// String returns "A", "B" or "" for ClassNone.
func (c Class) String() string {
	switch c {
	case ClassNone:
		return ""
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Valid reports whether c may label a training point.
func (c Class) Valid() bool {
	return c == ClassA || c == ClassB
}

// ParseClass parses "A" or "B" (case-insensitive).
func ParseClass(s string) (Class, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return ClassA, nil
	case "B":
		return ClassB, nil
	default:
		return ClassNone, fmt.Errorf("%w: %q", ErrInvalidClass, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	if c != ClassNone && !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClass, c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// An empty string decodes to ClassNone.
func (c *Class) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = ClassNone
		return nil
	}
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Point is a 2D coordinate in canvas pixel units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// LabeledPoint is a training point. It is immutable once created.
type LabeledPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Class Class   `json:"class"`
}

// Point returns the coordinate part of the labeled point.
func (lp LabeledPoint) Point() Point {
	return Point{X: lp.X, Y: lp.Y}
}

// Label returns a LabeledPoint at p carrying class c.
func (p Point) Label(c Class) LabeledPoint {
	return LabeledPoint{X: p.X, Y: p.Y, Class: c}
}

// Neighbor is a training point selected for a query.
type Neighbor struct {
	// Point is the selected training point.
	Point LabeledPoint `json:"point"`
	// Index is the position of Point in the training set.
	Index int `json:"index"`
	// Distance is the Euclidean distance to the query.
	Distance float64 `json:"distance"`
}

// Vote is the number of selected neighbors that carry Class.
type Vote struct {
	Class Class `json:"class"`
	Count int   `json:"count"`
}
