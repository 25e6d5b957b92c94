package flow

import "log/slog"

type coordinatorConfig struct {
	delegate Delegate
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*coordinatorConfig)

// WithDelegate sets the lifecycle delegate. If nil, no notifications are
// delivered.
func WithDelegate(d Delegate) Option {
	return func(c *coordinatorConfig) { c.delegate = d }
}

// WithLogger sets the coordinator's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *coordinatorConfig) { c.logger = logger }
}
