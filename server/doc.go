// Package server serves the playground over HTTP.
//
// Routes:
//
//	GET    /                                  canvas page
//	GET    /healthz                           liveness
//	GET    /metrics                           Prometheus metrics
//	POST   /api/predict                       stateless prediction
//	POST   /api/sessions                      create a session
//	GET    /api/sessions/{id}                 state and prediction
//	DELETE /api/sessions/{id}                 drop a session
//	POST   /api/sessions/{id}/points          add a training point, or place the query
//	PUT    /api/sessions/{id}/class           select the class for new points
//	PUT    /api/sessions/{id}/k               select K
//	POST   /api/sessions/{id}/clear           remove all points and the query
//	GET    /api/sessions/{id}/canvas.svg      rendered canvas
//
// Bodies are JSON encoded with the configured codec. Request bodies are
// decoded strictly: unknown keys and missing coordinates or k are rejected.
// Errors are returned as {"error": "..."} with 400 for invalid input, 404 for
// unknown sessions, 413 for oversized bodies, 422 when a training set is full
// and 429 when rate limited.
package server
