// Package config loads the server configuration.
//
// Values start from Default, are overridden by an optional TOML file and
// finally by command line flags.
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "10s"
//
//	[session]
//	capacity = 1024
//	ttl = "30m"
//	max_points = 1000
//
//	[classifier]
//	tie_break = "first-seen"
//
//	[rate_limit]
//	requests_per_second = 20
//	burst = 40
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/codec"
)

// Duration is a time.Duration that decodes from strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Session    SessionConfig    `toml:"session"`
	Classifier ClassifierConfig `toml:"classifier"`
	RateLimit  RateLimitConfig  `toml:"rate_limit"`
	Canvas     CanvasConfig     `toml:"canvas"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
	// Codec is "go-json" or "json".
	Codec string `toml:"codec"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	Capacity      int      `toml:"capacity"`
	TTL           Duration `toml:"ttl"`
	MaxPoints     int      `toml:"max_points"`
	SweepInterval Duration `toml:"sweep_interval"`
}

// ClassifierConfig configures predictions.
type ClassifierConfig struct {
	// TieBreak is "first-seen" or "last-seen".
	TieBreak string `toml:"tie_break"`
	// MaxStatelessPoints caps the training set of a stateless predict call.
	MaxStatelessPoints int `toml:"max_stateless_points"`
}

// RateLimitConfig configures the per-client token bucket.
// RequestsPerSecond <= 0 disables rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// CanvasConfig is the size of the rendered canvas in pixels.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    1 << 20,
			Codec:           codec.Default.Name(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			Capacity:      1024,
			TTL:           Duration{30 * time.Minute},
			MaxPoints:     1000,
			SweepInterval: Duration{time.Minute},
		},
		Classifier: ClassifierConfig{
			TieBreak:           classifier.TieBreakFirstSeen.String(),
			MaxStatelessPoints: 10000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Canvas: CanvasConfig{
			Width:  600,
			Height: 400,
		},
	}
}

// Load reads a TOML file on top of Default and validates the result.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if _, ok := codec.ByName(c.Server.Codec); !ok {
		errs = append(errs, fmt.Errorf("server.codec: unknown codec %q", c.Server.Codec))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Session.Capacity <= 0 {
		errs = append(errs, errors.New("session.capacity must be positive"))
	}
	if c.Session.TTL.Duration < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if c.Session.MaxPoints < 0 {
		errs = append(errs, errors.New("session.max_points must not be negative"))
	}
	if _, err := c.Classifier.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("classifier.tie_break: %w", err))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1"))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, errors.New("canvas width and height must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Policy parses TieBreak.
func (c ClassifierConfig) Policy() (classifier.TieBreak, error) {
	return classifier.ParseTieBreak(c.TieBreak)
}
