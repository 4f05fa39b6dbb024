package scopedgc

import (
	"io"
	"log/slog"
)

type config struct {
	name     string
	maxBytes uintptr
	logger   *slog.Logger
}

// Option configures a [Scope].
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithName labels the scope in logs and metrics.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithMaxBytes caps the bytes the scope may track. An allocation that would
// exceed the cap fails with [ErrOutOfMemory]; it never triggers a collection.
// Zero (the default) means no cap.
func WithMaxBytes(n uintptr) Option {
	return func(c *config) {
		c.maxBytes = n
	}
}

// WithLogger sets the logger used for collection and teardown events.
// A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = discardLogger()
		}
		c.logger = l
	}
}
