package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/silt/pkg/core"
)

// options holds the internal configuration for Connect.
type options struct {
	logger     *slog.Logger
	adapter    string
	database   string
	dialer     core.Dialer
	maxRetries int
	retryDelay time.Duration
}

// Option defines a functional option for configuring silt.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:  "mongo",
		database: "silt",
	}
}

// WithLogger sets the logger for the connection manager.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the storage adapter by name ("mongo" or "memory").
// Defaults to "mongo".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithDatabase sets the logical database name sessions are bound to.
func WithDatabase(name string) Option {
	return func(o *options) {
		o.database = name
	}
}

// WithDialer injects a custom storage dialer (e.g. a mock). If provided,
// the named adapter is skipped.
func WithDialer(d core.Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithMaxRetries bounds the dial attempts of the connection setup.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithRetryDelay sets the sleep between dial attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.retryDelay = d
	}
}
