package vhnotify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// DefaultTimeout bounds each Sink call.
const DefaultTimeout = 5 * time.Second

// Sink delivers rendered notification text.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// Renderer turns a notification into the text that is delivered.
type Renderer interface {
	Render(n event.Notification) (string, error)
}

// ObserverFunc is called for every rendered notification before delivery.
type ObserverFunc func(n event.Notification, message string)

// WatchOption configures a Watcher or Replay using the functional options
// pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logFile   string
	fromStart bool
	poll      bool
	timeout   time.Duration
	logger    *slog.Logger
	resolver  Resolver
	sink      Sink
	renderer  Renderer
	observer  ObserverFunc
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		timeout: DefaultTimeout,
		logger:  discardLogger,
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.timeout)
	}
	return nil
}

// WithLogFile sets the server log to follow. A directory selects its newest
// *.log file. If not set, VHNOTIFY_LOGFILE and the default locations are
// tried.
func WithLogFile(path string) WatchOption {
	return func(c *watchConfig) {
		c.logFile = path
	}
}

// WithReplayFromStart processes the existing log content before following
// new lines. Default: only new lines.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.fromStart = true
	}
}

// WithPoll follows the log by polling instead of filesystem events.
func WithPoll(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.poll = poll
	}
}

// WithTimeout bounds each Sink call. Default: 5 seconds.
func WithTimeout(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.timeout = d
	}
}

// WithLogger sets a logger for debug output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResolver sets the account name resolver.
// If not set, every account renders as unknown.
func WithResolver(r Resolver) WatchOption {
	return func(c *watchConfig) {
		c.resolver = r
	}
}

// WithSink sets where rendered messages are delivered. Required for a
// Watcher.
func WithSink(s Sink) WatchOption {
	return func(c *watchConfig) {
		c.sink = s
	}
}

// WithRenderer sets the message renderer.
// If not set, the English catalog is used.
func WithRenderer(r Renderer) WatchOption {
	return func(c *watchConfig) {
		c.renderer = r
	}
}

// WithObserver registers fn to see every rendered notification.
func WithObserver(fn ObserverFunc) WatchOption {
	return func(c *watchConfig) {
		c.observer = fn
	}
}
