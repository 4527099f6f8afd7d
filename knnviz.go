package knnviz

import (
	"context"
	"time"

	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/model"
)

// Classifier wraps classifier.Classifier with logging and metrics.
// It is safe for concurrent use.
type Classifier struct {
	inner   *classifier.Classifier
	logger  *Logger
	metrics MetricsCollector
}

// New creates a Classifier.
func New(optFns ...Option) *Classifier {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		tieBreak:         classifier.DefaultOptions.TieBreak,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Classifier{
		inner:   classifier.New(classifier.WithTieBreak(opts.tieBreak)),
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}
}

// Logger returns the configured logger.
func (c *Classifier) Logger() *Logger { return c.logger }

// Metrics returns the configured metrics collector.
func (c *Classifier) Metrics() MetricsCollector { return c.metrics }

// TieBreak returns the configured tie-break policy.
func (c *Classifier) TieBreak() classifier.TieBreak { return c.inner.TieBreak() }

// Classify predicts the class of query and reports the neighbors and votes.
// An empty training set yields an absent result and no error.
func (c *Classifier) Classify(ctx context.Context, points []model.LabeledPoint, k int, query model.Point) (classifier.Result, error) {
	start := time.Now()
	res, err := c.inner.Classify(points, k, query)
	c.metrics.RecordPredict(k, res.Class, len(res.Neighbors), time.Since(start), err)
	c.logger.LogPredict(ctx, k, len(points), res.Class, err)
	return res, err
}

// Predict returns the predicted class of query. ok is false when the
// training set is empty.
func (c *Classifier) Predict(ctx context.Context, points []model.LabeledPoint, k int, query model.Point) (model.Class, bool, error) {
	res, err := c.Classify(ctx, points, k, query)
	if err != nil {
		return model.ClassNone, false, err
	}
	return res.Class, !res.Absent(), nil
}
