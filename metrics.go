package knnviz

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/knnviz/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// The server package ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordPredict is called after each prediction.
	// k is the requested neighbor count, neighbors the number actually used.
	// class is model.ClassNone when no prediction was possible.
	RecordPredict(k int, class model.Class, neighbors int, duration time.Duration, err error)

	// RecordAddPoint is called after a training point was added.
	RecordAddPoint(class model.Class)

	// RecordClear is called after a training set was cleared.
	// removed is the number of training points dropped.
	RecordClear(removed int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPredict(int, model.Class, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAddPoint(model.Class)                                {}
func (NoopMetricsCollector) RecordClear(int)                                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PredictCount      atomic.Int64
	PredictAbsent     atomic.Int64
	PredictErrors     atomic.Int64
	PredictTotalNanos atomic.Int64
	PointsA           atomic.Int64
	PointsB           atomic.Int64
	ClearCount        atomic.Int64
	ClearedPoints     atomic.Int64
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(k int, class model.Class, neighbors int, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
		return
	}
	if class == model.ClassNone {
		b.PredictAbsent.Add(1)
	}
}

// RecordAddPoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddPoint(class model.Class) {
	switch class {
	case model.ClassA:
		b.PointsA.Add(1)
	case model.ClassB:
		b.PointsB.Add(1)
	}
}

// RecordClear implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClear(removed int) {
	b.ClearCount.Add(1)
	b.ClearedPoints.Add(int64(removed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PredictCount:    b.PredictCount.Load(),
		PredictAbsent:   b.PredictAbsent.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictAvgNanos: b.getAvgPredictNanos(),
		PointsA:         b.PointsA.Load(),
		PointsB:         b.PointsB.Load(),
		ClearCount:      b.ClearCount.Load(),
		ClearedPoints:   b.ClearedPoints.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPredictNanos() int64 {
	count := b.PredictCount.Load()
	if count == 0 {
		return 0
	}
	return b.PredictTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PredictCount    int64
	PredictAbsent   int64
	PredictErrors   int64
	PredictAvgNanos int64
	PointsA         int64
	PointsB         int64
	ClearCount      int64
	ClearedPoints   int64
}
