package knnviz

import (
	"github.com/hupe1980/knnviz/classifier"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	tieBreak         classifier.TieBreak
}

// Option configures a Classifier.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTieBreak sets the policy used when vote counts are equal.
func WithTieBreak(t classifier.TieBreak) Option {
	return func(o *options) {
		o.tieBreak = t
	}
}
