package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/knnviz"
	"github.com/hupe1980/knnviz/model"
)

var _ knnviz.MetricsCollector = (*Metrics)(nil)

// Metrics is a Prometheus-backed knnviz.MetricsCollector that also tracks
// HTTP traffic.
type Metrics struct {
	predictions    *prometheus.CounterVec
	predictLatency prometheus.Histogram
	neighbors      prometheus.Histogram
	pointsAdded    *prometheus.CounterVec
	clears         prometheus.Counter
	clearedPoints  prometheus.Counter
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimited    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knnviz_predictions_total",
			Help: "Predictions by outcome (A, B, absent, error)",
		}, []string{"outcome"}),
		predictLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "knnviz_predict_duration_seconds",
			Help:    "Latency of predictions",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		neighbors: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "knnviz_predict_neighbors",
			Help:    "Number of neighbors that voted",
			Buckets: prometheus.LinearBuckets(1, 2, 5),
		}),
		pointsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knnviz_training_points_added_total",
			Help: "Training points added by class",
		}, []string{"class"}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knnviz_clears_total",
			Help: "Training set clears",
		}),
		clearedPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knnviz_cleared_points_total",
			Help: "Training points removed by clears",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knnviz_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "knnviz_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knnviz_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		m.predictions,
		m.predictLatency,
		m.neighbors,
		m.pointsAdded,
		m.clears,
		m.clearedPoints,
		m.requests,
		m.requestLatency,
		m.rateLimited,
	)
	return m
}

// RecordPredict implements knnviz.MetricsCollector.
func (m *Metrics) RecordPredict(k int, class model.Class, neighbors int, duration time.Duration, err error) {
	m.predictLatency.Observe(duration.Seconds())
	switch {
	case err != nil:
		m.predictions.WithLabelValues("error").Inc()
	case class == model.ClassNone:
		m.predictions.WithLabelValues("absent").Inc()
	default:
		m.predictions.WithLabelValues(class.String()).Inc()
		m.neighbors.Observe(float64(neighbors))
	}
}

// RecordAddPoint implements knnviz.MetricsCollector.
func (m *Metrics) RecordAddPoint(class model.Class) {
	m.pointsAdded.WithLabelValues(class.String()).Inc()
}

// RecordClear implements knnviz.MetricsCollector.
func (m *Metrics) RecordClear(removed int) {
	m.clears.Inc()
	m.clearedPoints.Add(float64(removed))
}

func (m *Metrics) recordRequest(route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RegisterSessionGauge exposes the number of live sessions.
func RegisterSessionGauge(reg prometheus.Registerer, sessions func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "knnviz_sessions",
		Help: "Live sessions",
	}, func() float64 { return float64(sessions()) }))
}
