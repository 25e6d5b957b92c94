package resource

import "log/slog"

type coordinatorConfig[R any] struct {
	queue            *Queue
	defaultPriority  int
	logger           *slog.Logger
	fetchFn          FetchFunc[R]
	invalidateFn     InvalidateFunc[R]
	priorityChangeFn PriorityChangeFunc
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption[R any] func(*coordinatorConfig[R])

// WithQueue makes the coordinator run on a shared Queue instead of owning a
// private one. Shared queues are not closed by Coordinator.Close.
func WithQueue[R any](q *Queue) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.queue = q }
}

// WithDefaultPriority sets the priority used by Get calls that do not pass
// WithPriority. The default is 0.
func WithDefaultPriority[R any](priority int) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.defaultPriority = priority }
}

// WithLogger sets the coordinator's logger. Defaults to slog.Default().
func WithLogger[R any](logger *slog.Logger) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.logger = logger }
}

// WithFetchFunc sets the fetch function invoked to produce the value.
// The default immediately completes with a nil value.
func WithFetchFunc[R any](fn FetchFunc[R]) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.fetchFn = fn }
}

// WithInvalidateFunc sets the fallback supplier used by Invalidate when a
// fetch is in flight. The default returns nil.
func WithInvalidateFunc[R any](fn InvalidateFunc[R]) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.invalidateFn = fn }
}

// WithPriorityChangeFunc sets the hook fired when the maximum waiting
// priority changes.
func WithPriorityChangeFunc[R any](fn PriorityChangeFunc) CoordinatorOption[R] {
	return func(c *coordinatorConfig[R]) { c.priorityChangeFn = fn }
}

type getConfig struct {
	observer ObserverID
	priority *int
}

// GetOption configures a single Get call.
type GetOption func(*getConfig)

// AsObserver registers the request under a caller-supplied observer id
// instead of a freshly minted one. Re-registering an observer that is
// already waiting replaces its entry and moves it to the end of the
// delivery order.
func AsObserver(id ObserverID) GetOption {
	return func(c *getConfig) { c.observer = id }
}

// WithPriority overrides the coordinator's default priority for this
// observer. Higher priorities are delivered first.
func WithPriority(priority int) GetOption {
	return func(c *getConfig) {
		p := priority
		c.priority = &p
	}
}
