// Package session holds the application state of the playground.
//
// A State is an explicit container for what the canvas shows: the training
// set, the current class used for new points, K and the (single) query point.
// The classifier never sees a State; it is handed the State's fields.
//
// A Store keeps many States in memory, keyed by a random session id, with LRU
// eviction and an idle TTL. Nothing is persisted.
package session
