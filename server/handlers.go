package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hupe1980/knnviz"
	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/codec"
	"github.com/hupe1980/knnviz/model"
	"github.com/hupe1980/knnviz/render"
	"github.com/hupe1980/knnviz/session"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errRateLimited  = errors.New("rate limit exceeded")
)

type errorResponse struct {
	Error string `json:"error"`
}

type predictionResponse struct {
	// Class is null when the prediction is absent.
	Class     *model.Class     `json:"class"`
	Color     string           `json:"color"`
	Neighbors []model.Neighbor `json:"neighbors"`
	Votes     []model.Vote     `json:"votes"`
}

type sessionResponse struct {
	ID         string             `json:"id"`
	State      session.State      `json:"state"`
	Prediction predictionResponse `json:"prediction"`
}

// coordinates is a point on the wire. Both fields are required so that a
// missing or misspelled key is never read as the origin.
type coordinates struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (c coordinates) validate(field string) error {
	switch {
	case c.X == nil:
		return fmt.Errorf("missing field %sx", field)
	case c.Y == nil:
		return fmt.Errorf("missing field %sy", field)
	}
	return nil
}

func (c coordinates) point() model.Point {
	return model.Point{X: *c.X, Y: *c.Y}
}

type trainingPoint struct {
	coordinates
	Class model.Class `json:"class"`
}

type predictRequest struct {
	Points []trainingPoint `json:"points"`
	K      *int            `json:"k"`
	Query  *coordinates    `json:"query"`
}

func (r predictRequest) Validate() error {
	for i, p := range r.Points {
		if err := p.validate(fmt.Sprintf("points[%d].", i)); err != nil {
			return err
		}
	}
	if r.K == nil {
		return errors.New("missing field k")
	}
	if r.Query == nil {
		return errors.New("missing field query")
	}
	return r.Query.validate("query.")
}

func (r predictRequest) trainingSet() []model.LabeledPoint {
	points := make([]model.LabeledPoint, len(r.Points))
	for i, p := range r.Points {
		points[i] = p.point().Label(p.Class)
	}
	return points
}

type pointRequest struct {
	coordinates
	// Query places the query point instead of adding a training point.
	Query bool `json:"query"`
}

func (r pointRequest) Validate() error {
	return r.validate("")
}

type classRequest struct {
	Class model.Class `json:"class"`
}

type kRequest struct {
	K *int `json:"k"`
}

func (r kRequest) Validate() error {
	if r.K == nil {
		return errors.New("missing field k")
	}
	return nil
}

type clearResponse struct {
	sessionResponse
	Removed int `json:"removed"`
}

func newPredictionResponse(res classifier.Result) predictionResponse {
	resp := predictionResponse{
		Color:     render.ColorFor(res.Class),
		Neighbors: res.Neighbors,
		Votes:     res.Votes,
	}
	if resp.Neighbors == nil {
		resp.Neighbors = []model.Neighbor{}
	}
	if resp.Votes == nil {
		resp.Votes = []model.Vote{}
	}
	if !res.Absent() {
		c := res.Class
		resp.Class = &c
	}
	return resp
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	if limit := s.cfg.Classifier.MaxStatelessPoints; limit > 0 && len(req.Points) > limit {
		s.writeErr(w, fmt.Errorf("%w: %d points, limit is %d", knnviz.ErrTooManyPoints, len(req.Points), limit))
		return
	}
	points := req.trainingSet()
	query := req.Query.point()
	for i, p := range points {
		if !p.Point().Finite() {
			s.writeErr(w, fmt.Errorf("%w: points[%d]", knnviz.ErrInvalidCoordinate, i))
			return
		}
		if !p.Class.Valid() {
			s.writeErr(w, fmt.Errorf("%w: points[%d]", knnviz.ErrInvalidClass, i))
			return
		}
	}
	if !query.Finite() {
		s.writeErr(w, fmt.Errorf("%w: query", knnviz.ErrInvalidCoordinate))
		return
	}

	res, err := s.classifier.Classify(r.Context(), points, *req.K, query)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPredictionResponse(res))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, st := s.store.Create()
	s.logger.WithSession(id).InfoContext(r.Context(), "session created")
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		ID:         id,
		State:      st,
		Prediction: newPredictionResponse(classifier.Result{}),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.store.Get(id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.respondSession(w, r, id, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("id")) {
		s.writeErr(w, knnviz.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPoint(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	id := r.PathValue("id")
	p := req.point()

	var added model.LabeledPoint
	st, err := s.store.Update(id, func(st *session.State) error {
		if req.Query {
			return st.SetQuery(p)
		}
		lp, err := st.AddPoint(p)
		added = lp
		return err
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}

	if !req.Query {
		s.classifier.Metrics().RecordAddPoint(added.Class)
		s.logger.WithSession(id).LogAddPoint(r.Context(), added, len(st.Points))
	}
	s.respondSession(w, r, id, st)
}

func (s *Server) handleSetClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	id := r.PathValue("id")
	st, err := s.store.Update(id, func(st *session.State) error {
		return st.SetClass(req.Class)
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.respondSession(w, r, id, st)
}

func (s *Server) handleSetK(w http.ResponseWriter, r *http.Request) {
	var req kRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	id := r.PathValue("id")
	st, err := s.store.Update(id, func(st *session.State) error {
		return st.SetK(*req.K)
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.respondSession(w, r, id, st)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var removed int
	st, err := s.store.Update(id, func(st *session.State) error {
		removed = st.Clear()
		return nil
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}

	s.classifier.Metrics().RecordClear(removed)
	s.logger.WithSession(id).LogClear(r.Context(), removed)
	s.writeJSON(w, http.StatusOK, clearResponse{
		sessionResponse: sessionResponse{
			ID:         id,
			State:      st,
			Prediction: newPredictionResponse(classifier.Result{}),
		},
		Removed: removed,
	})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}

	res, err := st.Classify(r.Context(), s.classifier)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	opts := render.Options{
		Width:              s.cfg.Canvas.Width,
		Height:             s.cfg.Canvas.Height,
		HighlightNeighbors: r.URL.Query().Get("neighbors") != "",
	}
	if err := render.SVG(w, st, res, opts); err != nil {
		s.logger.ErrorContext(r.Context(), "render failed", "error", err)
	}
}

// respondSession writes the state together with the prediction for its query.
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, id string, st session.State) {
	res, err := st.Classify(r.Context(), s.classifier)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{
		ID:         id,
		State:      st,
		Prediction: newPredictionResponse(res),
	})
}

// decode reads a bounded request body and strictly decodes it into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %w", codec.ErrMalformed, err)
	}
	return s.codec.Decode(bytes.NewReader(body), v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := s.codec.Marshal(v)
	if err != nil {
		s.logger.Error("encode response failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	s.writeError(w, statusFor(err), err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, knnviz.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, knnviz.ErrTooManyPoints):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, codec.ErrMalformed),
		errors.Is(err, knnviz.ErrInvalidK),
		errors.Is(err, knnviz.ErrInvalidClass),
		errors.Is(err, knnviz.ErrInvalidCoordinate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
