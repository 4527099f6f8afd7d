package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/knnviz/codec"
	"github.com/hupe1980/knnviz/config"
	"github.com/hupe1980/knnviz/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config), optFns ...Option) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.RequestsPerSecond = 0
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, optFns...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[sessionResponse](t, rec).ID
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Codec = "xml"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestStaticRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "K-Nearest Neighbors Classification")

	rec = do(t, s, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s)
	base := "/api/sessions/" + id

	rec := do(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, 3, resp.State.K)
	assert.Equal(t, model.ClassA, resp.State.CurrentClass)
	assert.Nil(t, resp.Prediction.Class)
	assert.Equal(t, "gray", resp.Prediction.Color)

	// A query on an empty canvas is absent.
	rec = do(t, s, http.MethodPost, base+"/points", `{"x":5,"y":5,"query":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[sessionResponse](t, rec)
	require.NotNil(t, resp.State.Query)
	assert.Nil(t, resp.Prediction.Class)

	// [{0,0,A}, {10,10,B}], k=1, query {1,1} -> A.
	rec = do(t, s, http.MethodPost, base+"/points", `{"x":0,"y":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPut, base+"/class", `{"class":"B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, base+"/points", `{"x":10,"y":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPut, base+"/k", `{"k":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, base+"/points", `{"x":1,"y":1,"query":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp = decodeBody[sessionResponse](t, rec)
	assert.Equal(t, []model.LabeledPoint{
		{X: 0, Y: 0, Class: model.ClassA},
		{X: 10, Y: 10, Class: model.ClassB},
	}, resp.State.Points)
	require.NotNil(t, resp.Prediction.Class)
	assert.Equal(t, model.ClassA, *resp.Prediction.Class)
	assert.Equal(t, "rgb(239 68 68)", resp.Prediction.Color)
	require.Len(t, resp.Prediction.Neighbors, 1)
	assert.InDelta(t, 1.4142135, resp.Prediction.Neighbors[0].Distance, 1e-6)

	rec = do(t, s, http.MethodGet, base+"/canvas.svg?neighbors=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "<circle"))

	rec = do(t, s, http.MethodPost, base+"/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decodeBody[clearResponse](t, rec)
	assert.Equal(t, 2, cleared.Removed)
	assert.Empty(t, cleared.State.Points)
	assert.Nil(t, cleared.State.Query)
	assert.Equal(t, 1, cleared.State.K)

	rec = do(t, s, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Session.MaxPoints = 1 })
	id := createSession(t, s)
	base := "/api/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"EvenK", http.MethodPut, base + "/k", `{"k":4}`, http.StatusBadRequest},
		{"KTooLarge", http.MethodPut, base + "/k", `{"k":11}`, http.StatusBadRequest},
		{"UnknownClass", http.MethodPut, base + "/class", `{"class":"C"}`, http.StatusBadRequest},
		{"NoClass", http.MethodPut, base + "/class", `{}`, http.StatusBadRequest},
		{"MalformedJSON", http.MethodPost, base + "/points", `{"x":`, http.StatusBadRequest},
		{"PointMisspelledKey", http.MethodPost, base + "/points", `{"X_typo":5}`, http.StatusBadRequest},
		{"PointMissingY", http.MethodPost, base + "/points", `{"x":5}`, http.StatusBadRequest},
		{"QueryMissingX", http.MethodPost, base + "/points", `{"y":5,"query":true}`, http.StatusBadRequest},
		{"PointUnknownField", http.MethodPost, base + "/points", `{"x":1,"y":1,"color":"red"}`, http.StatusBadRequest},
		{"MissingK", http.MethodPut, base + "/k", `{}`, http.StatusBadRequest},
		{"TrailingData", http.MethodPut, base + "/k", `{"k":3} {"k":5}`, http.StatusBadRequest},
		{"UnknownSession", http.MethodPost, "/api/sessions/missing/points", `{"x":1,"y":1}`, http.StatusNotFound},
		{"UnknownSessionCanvas", http.MethodGet, "/api/sessions/missing/canvas.svg", nil, http.StatusNotFound},
		{"UnknownSessionDelete", http.MethodDelete, "/api/sessions/missing", nil, http.StatusNotFound},
		{"UnknownSessionClear", http.MethodPost, "/api/sessions/missing/clear", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Error)
		})
	}

	t.Run("TooManyPoints", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, base+"/points", `{"x":1,"y":1}`)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = do(t, s, http.MethodPost, base+"/points", `{"x":2,"y":2}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestPredict(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Classifier.MaxStatelessPoints = 3 })

	t.Run("Majority", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/predict", `{
			"points": [{"x":0,"y":0,"class":"A"},{"x":1,"y":0,"class":"A"},{"x":10,"y":0,"class":"B"}],
			"k": 3,
			"query": {"x":0.5,"y":0}
		}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[predictionResponse](t, rec)
		require.NotNil(t, resp.Class)
		assert.Equal(t, model.ClassA, *resp.Class)
		assert.Len(t, resp.Neighbors, 3)
		assert.Equal(t, []model.Vote{{Class: model.ClassA, Count: 2}, {Class: model.ClassB, Count: 1}}, resp.Votes)
	})

	t.Run("Empty", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/predict", `{"points":[],"k":3,"query":{"x":5,"y":5}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"class":null,"color":"gray","neighbors":[],"votes":[]}`, rec.Body.String())
	})

	t.Run("LargeKUsesAllPoints", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/predict", `{"points":[{"x":0,"y":0,"class":"B"}],"k":50,"query":{"x":5,"y":5}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[predictionResponse](t, rec)
		require.NotNil(t, resp.Class)
		assert.Equal(t, model.ClassB, *resp.Class)
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"InvalidK", `{"points":[{"x":0,"y":0,"class":"A"}],"k":0,"query":{"x":1,"y":1}}`, http.StatusBadRequest},
		{"MissingClass", `{"points":[{"x":0,"y":0}],"k":1,"query":{"x":1,"y":1}}`, http.StatusBadRequest},
		{"BadClass", `{"points":[{"x":0,"y":0,"class":"Z"}],"k":1,"query":{"x":1,"y":1}}`, http.StatusBadRequest},
		{"TooMany", `{"points":[{"x":0,"y":0,"class":"A"},{"x":0,"y":0,"class":"A"},{"x":0,"y":0,"class":"A"},{"x":0,"y":0,"class":"A"}],"k":1,"query":{"x":1,"y":1}}`, http.StatusUnprocessableEntity},
		{"NotJSON", `k=3`, http.StatusBadRequest},
		{"MissingQuery", `{"points":[{"x":0,"y":0,"class":"A"},{"x":500,"y":500,"class":"B"}],"k":1}`, http.StatusBadRequest},
		{"QueryMissingY", `{"points":[{"x":0,"y":0,"class":"A"}],"k":1,"query":{"x":1}}`, http.StatusBadRequest},
		{"MissingK", `{"points":[{"x":0,"y":0,"class":"A"}],"query":{"x":1,"y":1}}`, http.StatusBadRequest},
		{"PointMissingX", `{"points":[{"y":0,"class":"A"}],"k":1,"query":{"x":1,"y":1}}`, http.StatusBadRequest},
		{"UnknownField", `{"points":[],"k":1,"query":{"x":1,"y":1},"metric":"manhattan"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })
	rec := do(t, s, http.MethodPost, "/api/predict", `{"points":[],"k":3,"query":{"x":5,"y":5}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error, "too large")
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	s := newTestServer(t, func(c *config.Config) {
		c.RateLimit.RequestsPerSecond = 1
		c.RateLimit.Burst = 2
	}, WithClock(func() time.Time { return now }))

	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/sessions", nil).Code)
	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/sessions", nil).Code)

	rec := do(t, s, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Non-API routes are not limited.
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)

	assert.Equal(t, 1, s.limiter.Len())
	now = now.Add(time.Hour)
	assert.Equal(t, 1, s.limiter.Prune(s.idleClientTTL()))
	assert.Equal(t, 0, s.limiter.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	id := createSession(t, s)

	do(t, s, http.MethodPost, "/api/sessions/"+id+"/points", `{"x":1,"y":1}`)
	do(t, s, http.MethodPost, "/api/sessions/"+id+"/points", `{"x":2,"y":2,"query":true}`)
	do(t, s, http.MethodPost, "/api/sessions/"+id+"/clear", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `knnviz_training_points_added_total{class="A"} 1`)
	assert.Contains(t, body, `knnviz_predictions_total{outcome="A"}`)
	assert.Contains(t, body, `knnviz_clears_total 1`)
	assert.Contains(t, body, `knnviz_sessions 1`)
	assert.Contains(t, body, `knnviz_http_requests_total{route="POST /api/sessions",status="201"} 1`)
}

func TestServe(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Session.SweepInterval = config.Duration{Duration: 10 * time.Millisecond}
		c.Server.ShutdownTimeout = config.Duration{Duration: time.Second}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", ln.Addr()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrap: %w", codec.ErrMalformed)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(fmt.Errorf("wrap: %w", errBodyTooLarge)))
}

func TestObserveRecovers(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{"BeforeWrite", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}, http.StatusInternalServerError},
		{"AfterWrite", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("partial"))
			panic("boom")
		}, http.StatusAccepted},
		{"AfterBodyOnly", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("partial"))
			panic("boom")
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			s.metrics = NewMetrics(reg)

			rec := httptest.NewRecorder()
			s.observe(tt.handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
			assert.Equal(t, tt.status, rec.Code)

			families, err := reg.Gather()
			require.NoError(t, err)

			var statuses []string
			for _, mf := range families {
				if mf.GetName() != "knnviz_http_requests_total" {
					continue
				}
				for _, m := range mf.GetMetric() {
					for _, lp := range m.GetLabel() {
						if lp.GetName() == "status" {
							statuses = append(statuses, lp.GetValue())
						}
					}
				}
			}
			assert.Equal(t, []string{strconv.Itoa(tt.status)}, statuses)
		})
	}
}
