package classifier

import (
	"fmt"
	"strings"
)

// TieBreak decides which class wins when vote counts are equal.
type TieBreak uint8

const (
	// TieBreakFirstSeen picks the first class, in tally order, whose count is
	// not exceeded by any class compared after it.
	TieBreakFirstSeen TieBreak = iota
	// TieBreakLastSeen replaces the running winner whenever a later class has
	// an equal or higher count, so the last of the tied classes wins.
	TieBreakLastSeen
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakFirstSeen:
		return "first-seen"
	case TieBreakLastSeen:
		return "last-seen"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ParseTieBreak parses "first-seen" or "last-seen". An empty string selects
// TieBreakFirstSeen.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-seen":
		return TieBreakFirstSeen, nil
	case "last-seen":
		return TieBreakLastSeen, nil
	default:
		return TieBreakFirstSeen, fmt.Errorf("unknown tie-break policy %q", s)
	}
}

// Options contains configuration options for the classifier.
type Options struct {
	// TieBreak resolves equal vote counts.
	TieBreak TieBreak
}

// DefaultOptions contains the default configuration options for the classifier.
var DefaultOptions = Options{
	TieBreak: TieBreakFirstSeen,
}

// Option configures a Classifier.
type Option func(*Options)

// WithTieBreak sets the tie-break policy.
func WithTieBreak(t TieBreak) Option {
	return func(o *Options) {
		o.TieBreak = t
	}
}
