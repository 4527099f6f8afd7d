package session

import "time"

// Options contains configuration options for a Store.
type Options struct {
	// Capacity is the maximum number of live sessions. The least recently
	// used session is evicted when a new one would exceed it.
	Capacity int
	// TTL is the idle time after which a session expires. Zero disables expiry.
	TTL time.Duration
	// MaxPoints caps the training set of every session. Zero means unlimited.
	MaxPoints int
	// Now returns the current time.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options for a Store.
var DefaultOptions = Options{
	Capacity:  1024,
	TTL:       30 * time.Minute,
	MaxPoints: 1000,
	Now:       time.Now,
}

// Option configures a Store.
type Option func(*Options)

// WithCapacity sets the maximum number of live sessions.
func WithCapacity(n int) Option {
	return func(o *Options) {
		o.Capacity = n
	}
}

// WithTTL sets the idle expiry.
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		o.TTL = d
	}
}

// WithMaxPoints sets the per-session training set cap.
func WithMaxPoints(n int) Option {
	return func(o *Options) {
		o.MaxPoints = n
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
