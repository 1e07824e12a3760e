// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultStartupTimeout bounds how long Listen waits for the listener.
	DefaultStartupTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds how long Shutdown waits for open requests.
	DefaultShutdownTimeout = 5 * time.Second
)

type (
	// Option configures a Base.
	Option func(*Base)

	settings struct {
		name            string
		logger          *log.Logger
		startupTimeout  time.Duration
		shutdownTimeout time.Duration
	}
)

func defaultSettings() settings {
	return settings{
		name:            "server",
		logger:          log.New(io.Discard),
		startupTimeout:  DefaultStartupTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// WithErrorChannel sets the buffer size of the Err channel. The default is 1.
func WithErrorChannel(size int) Option {
	return func(b *Base) { b.errCh = make(chan error, size) }
}

// WithName labels log lines and errors, e.g. "http server".
func WithName(name string) Option {
	return func(b *Base) {
		if name != "" {
			b.settings.name = name
		}
	}
}

// WithLogger sets the lifecycle logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.settings.logger = logger
		}
	}
}

// WithStartupTimeout overrides DefaultStartupTimeout.
func WithStartupTimeout(d time.Duration) Option {
	return func(b *Base) {
		if d > 0 {
			b.settings.startupTimeout = d
		}
	}
}

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(b *Base) {
		if d > 0 {
			b.settings.shutdownTimeout = d
		}
	}
}
