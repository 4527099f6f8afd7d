package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/knnviz"
	"github.com/hupe1980/knnviz/codec"
	"github.com/hupe1980/knnviz/config"
	"github.com/hupe1980/knnviz/session"
)

//go:embed static
var staticFS embed.FS

// Server is the HTTP front end of the playground.
type Server struct {
	cfg        config.Config
	logger     *knnviz.Logger
	codec      codec.Codec
	store      *session.Store
	classifier *knnviz.Classifier
	metrics    *Metrics
	registry   *prometheus.Registry
	limiter    *clientLimiter
	handler    http.Handler
}

type options struct {
	logger   *knnviz.Logger
	registry *prometheus.Registry
	now      func() time.Time
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *knnviz.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegistry sets the Prometheus registry served on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithClock overrides the time source of sessions and the rate limiter.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a Server from a validated configuration.
func New(cfg config.Config, optFns ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := options{
		logger: knnviz.NoopLogger(),
		now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.registry == nil {
		opts.registry = prometheus.NewRegistry()
	}

	c, _ := codec.ByName(cfg.Server.Codec)
	tieBreak, _ := cfg.Classifier.Policy()

	metrics := NewMetrics(opts.registry)
	store := session.NewStore(
		session.WithCapacity(cfg.Session.Capacity),
		session.WithTTL(cfg.Session.TTL.Duration),
		session.WithMaxPoints(cfg.Session.MaxPoints),
		session.WithClock(opts.now),
	)
	RegisterSessionGauge(opts.registry, store.Len)

	s := &Server{
		cfg:    cfg,
		logger: opts.logger,
		codec:  c,
		store:  store,
		classifier: knnviz.New(
			knnviz.WithLogger(opts.logger),
			knnviz.WithMetricsCollector(metrics),
			knnviz.WithTieBreak(tieBreak),
		),
		metrics:  metrics,
		registry: opts.registry,
		limiter:  newClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, opts.now),
	}
	s.handler = s.observe(s.limit(s.routes()))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the session store.
func (s *Server) Store() *session.Store {
	return s.store
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/points", s.handleAddPoint)
	mux.HandleFunc("PUT /api/sessions/{id}/class", s.handleSetClass)
	mux.HandleFunc("PUT /api/sessions/{id}/k", s.handleSetK)
	mux.HandleFunc("POST /api/sessions/{id}/clear", s.handleClear)
	mux.HandleFunc("GET /api/sessions/{id}/canvas.svg", s.handleCanvas)

	return mux
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
// Expired sessions and idle rate-limit buckets are swept in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(gctx, "server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		s.logger.InfoContext(shutdownCtx, "server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if interval := s.cfg.Session.SweepInterval.Duration; interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s.sweep(gctx)
				}
			}
		})
	}

	return g.Wait()
}

func (s *Server) sweep(ctx context.Context) {
	sessions := s.store.Sweep()
	clients := s.limiter.Prune(s.idleClientTTL())
	if sessions > 0 || clients > 0 {
		s.logger.DebugContext(ctx, "swept idle state", "sessions", sessions, "clients", clients)
	}
}

// idleClientTTL is how long an unused rate-limit bucket is kept. A bucket
// idle that long is full again, so forgetting it changes nothing.
func (s *Server) idleClientTTL() time.Duration {
	rl := s.cfg.RateLimit
	if rl.RequestsPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(rl.Burst)/rl.RequestsPerSecond*float64(time.Second)) + time.Second
}
