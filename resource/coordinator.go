package resource

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Completion receives a delivered resource value. A nil value is the valid
// "successfully fetched nothing" outcome, not an error.
type Completion[R any] func(value *R)

// FetchFunc produces the resource value for one fetch generation. It runs
// on its own goroutine; priority is the maximum priority among the waiting
// observers at the time the fetch starts (nil when none remain). ctx is
// canceled once the generation is superseded, but honoring it is advisory:
// a result from a superseded generation is dropped either way.
//
// Returning an error counts as fetching nothing; the error is logged and a
// nil value is cached and delivered.
type FetchFunc[R any] func(ctx context.Context, priority *int) (*R, error)

// InvalidateFunc synchronously supplies a best-effort fallback value that
// Invalidate delivers to the waiters of an in-flight fetch.
type InvalidateFunc[R any] func() *R

// PriorityChangeFunc is notified whenever the maximum priority among
// waiting observers changes. A nil priority means no observers are waiting.
type PriorityChangeFunc func(oldPriority, newPriority *int)

type waiter[R any] struct {
	observer   ObserverID
	priority   int
	completion Completion[R]
}

// Coordinator manages the lifecycle of one lazily fetched value of type R:
// it de-duplicates concurrent requests into a single fetch, tracks observer
// priorities, and distributes the produced value to every waiting observer
// in priority order. All state mutation is serialized on a single Queue, so
// no locks are held and operations never interleave.
//
// Public operations enqueue their logic and return immediately; completions
// and hooks are invoked on the queue.
type Coordinator[R any] struct {
	queue           *Queue
	ownedQueue      bool
	defaultPriority int
	logger          *slog.Logger

	// The fields below are only touched by tasks running on the queue.
	fetchFn          FetchFunc[R]
	invalidateFn     InvalidateFunc[R]
	priorityChangeFn PriorityChangeFunc

	state       State[R]
	waiting     []waiter[R]
	history     map[ObserverID]struct{}
	fetchCancel context.CancelFunc
}

// NewCoordinator creates a coordinator in the empty state. Unless WithQueue
// is given it owns a private Queue, which Close releases.
func NewCoordinator[R any](opts ...CoordinatorOption[R]) *Coordinator[R] {
	cfg := coordinatorConfig[R]{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Coordinator[R]{
		queue:            cfg.queue,
		defaultPriority:  cfg.defaultPriority,
		logger:           cfg.logger,
		fetchFn:          cfg.fetchFn,
		invalidateFn:     cfg.invalidateFn,
		priorityChangeFn: cfg.priorityChangeFn,
		state:            emptyState[R](),
		history:          make(map[ObserverID]struct{}),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fetchFn == nil {
		c.fetchFn = func(context.Context, *int) (*R, error) { return nil, nil }
	}
	if c.invalidateFn == nil {
		c.invalidateFn = func() *R { return nil }
	}
	if c.queue == nil {
		c.queue = NewQueue()
		c.ownedQueue = true
	}
	return c
}

// Get requests the resource value for one observer and returns the observer
// id immediately. The completion is invoked exactly once with the delivered
// value — unless the observer already received a result for the current
// cache generation, in which case the call is a no-op.
//
// When a value is already cached it is delivered immediately (still on the
// queue) without touching the waiting list or history, so it can be
// requested repeatedly. Otherwise the observer joins the waiting list —
// starting a fetch if none is in flight — and is delivered to when a value
// is produced. Re-registering a waiting observer replaces its entry and
// moves it to the end of the delivery order among equal priorities.
func (c *Coordinator[R]) Get(completion Completion[R], opts ...GetOption) ObserverID {
	var cfg getConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	observer := cfg.observer
	if observer == "" {
		observer = NewObserverID()
	}
	priority := c.defaultPriority
	if cfg.priority != nil {
		priority = *cfg.priority
	}

	c.queue.dispatch(func() {
		c.get(observer, priority, completion)
	})
	return observer
}

func (c *Coordinator[R]) get(observer ObserverID, priority int, completion Completion[R]) {
	if _, delivered := c.history[observer]; delivered {
		// At most one delivered result per observer per cache generation.
		return
	}

	if c.state.kind == StateFetched {
		if completion != nil {
			completion(c.state.value)
		}
		return
	}

	old := c.maxWaitingPriority()
	c.upsertWaiter(waiter[R]{observer: observer, priority: priority, completion: completion})
	c.reconcilePriority(old)

	if c.state.kind == StateEmpty {
		c.startFetch()
	}
}

// Forget removes the observer from both the waiting list and the delivery
// history, allowing it to register again. Forgetting an unknown observer is
// a no-op beyond the priority recheck.
func (c *Coordinator[R]) Forget(observer ObserverID) {
	c.queue.dispatch(func() {
		delete(c.history, observer)

		old := c.maxWaitingPriority()
		before := len(c.waiting)
		c.waiting = slices.DeleteFunc(c.waiting, func(w waiter[R]) bool {
			return w.observer == observer
		})
		noteWaitingDelta(len(c.waiting) - before)
		c.reconcilePriority(old)
	})
}

// ForgetAll clears the waiting list and the delivery history. The cached
// state is left untouched.
func (c *Coordinator[R]) ForgetAll() {
	c.queue.dispatch(func() {
		old := c.maxWaitingPriority()
		noteWaitingDelta(-len(c.waiting))
		c.waiting = nil
		c.history = make(map[ObserverID]struct{})
		c.reconcilePriority(old)
	})
}

// Check delivers a read-only snapshot of the current state on the queue.
// It has no side effects and doubles as a barrier: the snapshot reflects
// every operation enqueued before it.
func (c *Coordinator[R]) Check(fn func(State[R])) {
	if fn == nil {
		return
	}
	c.queue.dispatch(func() {
		fn(c.state)
	})
}

// Expire forces re-evaluation of the value without disturbing waiters.
// Empty: no-op. Fetching: the in-flight fetch is superseded and a fresh one
// starts for the same waiting set; a result from the old generation must
// never deliver. Fetched: the cached value is dropped and the state reverts
// to empty, silently; the next Get fetches anew.
func (c *Coordinator[R]) Expire() {
	c.queue.dispatch(func() {
		switch c.state.kind {
		case StateEmpty:
		case StateFetching:
			c.restartFetch()
		case StateFetched:
			c.state = emptyState[R]()
		}
	})
}

// Invalidate is Expire with output: when a fetch is in flight the state
// reverts to empty and the InvalidateFunc's fallback value is delivered to
// every current waiter. On a fetched state the cached value is silently
// dropped, exactly like Expire.
func (c *Coordinator[R]) Invalidate() {
	c.queue.dispatch(func() {
		switch c.state.kind {
		case StateEmpty:
		case StateFetching:
			c.cancelFetch()
			c.state = emptyState[R]()
			c.deliver(c.invalidateFn(), deliverySourceInvalidate)
		case StateFetched:
			c.state = emptyState[R]()
		}
	})
}

// Set unconditionally transitions to a fetched state holding value and
// delivers it to every current waiter, superseding any in-flight fetch.
// This is the manual push-completion path.
func (c *Coordinator[R]) Set(value *R) {
	c.queue.dispatch(func() {
		c.cancelFetch()
		c.state = fetchedState[R](value)
		c.deliver(value, deliverySourceSet)
	})
}

// SetFetchFunc replaces the fetch function. A nil fn restores the default,
// which immediately completes with nil. The swap is serialized on the
// queue; an in-flight fetch keeps its function.
func (c *Coordinator[R]) SetFetchFunc(fn FetchFunc[R]) {
	c.queue.dispatch(func() {
		if fn == nil {
			fn = func(context.Context, *int) (*R, error) { return nil, nil }
		}
		c.fetchFn = fn
	})
}

// SetInvalidateFunc replaces the invalidation fallback supplier. A nil fn
// restores the default, which returns nil.
func (c *Coordinator[R]) SetInvalidateFunc(fn InvalidateFunc[R]) {
	c.queue.dispatch(func() {
		if fn == nil {
			fn = func() *R { return nil }
		}
		c.invalidateFn = fn
	})
}

// SetPriorityChangeFunc replaces the priority-change hook. A nil fn
// disables it.
func (c *Coordinator[R]) SetPriorityChangeFunc(fn PriorityChangeFunc) {
	c.queue.dispatch(func() {
		c.priorityChangeFn = fn
	})
}

// Close supersedes any in-flight fetch and drops all waiting observers
// without invoking their completions. When the coordinator owns its queue,
// the queue is stopped once the already-enqueued operations have run and
// later operations are dropped; a coordinator on a shared queue stays
// usable, since the queue belongs to the caller.
func (c *Coordinator[R]) Close() {
	c.queue.dispatch(func() {
		c.cancelFetch()

		old := c.maxWaitingPriority()
		noteWaitingDelta(-len(c.waiting))
		c.waiting = nil
		if c.state.kind == StateFetching {
			c.state = emptyState[R]()
		}
		c.reconcilePriority(old)
	})
	if c.ownedQueue {
		c.queue.Close()
	}
}

// startFetch begins a fetch for the current waiting set. Only an observer
// registration can start one, so an empty waiting list here is a bug.
func (c *Coordinator[R]) startFetch() {
	if len(c.waiting) == 0 {
		panic("resource: fetch started with no waiting observers")
	}
	c.restartFetch()
}

// restartFetch supersedes any outstanding fetch generation and schedules a
// new one. The fetch function is not invoked inline: invocation is enqueued
// so that observers registered in already-enqueued operations are folded
// into the priority the fetch reports.
func (c *Coordinator[R]) restartFetch() {
	c.cancelFetch()

	fetchID := newFetchID()
	c.state = fetchingState[R](fetchID, c.maxWaitingPriority())
	c.logger.Debug("resource fetch scheduled", "fetchId", string(fetchID))

	c.queue.dispatch(func() {
		c.invokeFetch(fetchID)
	})
}

func (c *Coordinator[R]) invokeFetch(fetchID FetchID) {
	if c.state.kind != StateFetching || c.state.fetchID != fetchID {
		// Superseded before it ever ran; the replacement generation has its
		// own invocation enqueued.
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.fetchCancel = cancel

	priority := c.maxWaitingPriority()
	fetch := c.fetchFn

	go func() {
		start := time.Now()
		value, err := fetch(ctx, priority)
		elapsed := time.Since(start)

		c.queue.dispatch(func() {
			c.completeFetch(fetchID, value, err, elapsed)
		})
	}()
}

func (c *Coordinator[R]) completeFetch(fetchID FetchID, value *R, err error, elapsed time.Duration) {
	if c.state.kind != StateFetching || c.state.fetchID != fetchID {
		// A stale result from a superseded fetch must never deliver.
		c.logger.Debug("dropping stale fetch result", "fetchId", string(fetchID))
		noteFetch(fetchOutcomeStale, elapsed)
		return
	}

	c.cancelFetch()

	if err != nil {
		// The fetch produced nothing; nil is cached and delivered as the
		// result. The fetch function owns reporting of its own errors.
		c.logger.Error("resource fetch failed", "fetchId", string(fetchID), "error", err.Error())
		noteFetch(fetchOutcomeError, elapsed)
		value = nil
	} else {
		noteFetch(fetchOutcomeFetched, elapsed)
	}

	c.state = fetchedState[R](value)
	c.deliver(value, deliverySourceFetch)
}

// deliver implements the delivery rule: snapshot and clear the waiting
// list, stable-sort it by priority descending (registration order among
// ties), record history, report the priority change, then invoke the
// callbacks in order.
func (c *Coordinator[R]) deliver(value *R, source string) {
	if len(c.waiting) == 0 {
		return
	}

	old := c.maxWaitingPriority()
	delivered := c.waiting
	c.waiting = nil
	noteWaitingDelta(-len(delivered))

	slices.SortStableFunc(delivered, func(a, b waiter[R]) int {
		if a.priority > b.priority {
			return -1
		}
		if a.priority < b.priority {
			return 1
		}
		return 0
	})

	for _, w := range delivered {
		c.history[w.observer] = struct{}{}
	}

	c.reconcilePriority(old)

	for _, w := range delivered {
		if w.completion != nil {
			w.completion(value)
		}
	}
	noteDelivery(source, len(delivered))
}

func (c *Coordinator[R]) upsertWaiter(w waiter[R]) {
	before := len(c.waiting)
	c.waiting = slices.DeleteFunc(c.waiting, func(entry waiter[R]) bool {
		return entry.observer == w.observer
	})
	c.waiting = append(c.waiting, w)
	noteWaitingDelta(len(c.waiting) - before)
}

// maxWaitingPriority returns the maximum priority among waiting observers,
// or nil when none are waiting.
func (c *Coordinator[R]) maxWaitingPriority() *int {
	if len(c.waiting) == 0 {
		return nil
	}
	max := c.waiting[0].priority
	for _, w := range c.waiting[1:] {
		if w.priority > max {
			max = w.priority
		}
	}
	return &max
}

// reconcilePriority recomputes the aggregate priority after a waiting-list
// mutation, keeps a fetching state's embedded priority in sync, and fires
// the priority-change hook when the maximum moved.
func (c *Coordinator[R]) reconcilePriority(old *int) {
	current := c.maxWaitingPriority()
	if c.state.kind == StateFetching {
		c.state.priority = current
	}
	if priorityEqual(old, current) {
		return
	}
	if c.priorityChangeFn != nil {
		c.priorityChangeFn(old, current)
	}
}

func (c *Coordinator[R]) cancelFetch() {
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
}

func priorityEqual(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
