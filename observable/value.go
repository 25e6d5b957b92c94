// Package observable provides a thread-safe observable container for a
// single value, with synchronous change notification.
package observable

import (
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// SubscriptionID identifies one registered subscriber.
type SubscriptionID string

// Subscriber is notified with the previous and the new value after each
// change. Subscribing does not replay the current value.
type Subscriber[T any] func(old, new T)

type subscription[T any] struct {
	id SubscriptionID
	fn Subscriber[T]
}

// Value holds a single value of type T and notifies subscribers when it
// changes. Notifications run synchronously on the goroutine that performed
// the change, in registration order, outside the container's lock. A
// panicking subscriber is recovered and logged so the remaining
// subscribers still run.
//
// Every Set counts as a change; values are not compared.
type Value[T any] struct {
	mu          sync.RWMutex
	current     T
	subscribers []subscription[T]
	logger      *slog.Logger
}

// NewValue creates an observable holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		logger:  slog.Default(),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value and notifies all subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	old := v.current
	v.current = value
	subscribers := slices.Clone(v.subscribers)
	v.mu.Unlock()

	for _, sub := range subscribers {
		v.safeNotify(sub.fn, old, value)
	}
}

// Update atomically replaces the current value with transform's result,
// notifies all subscribers, and returns the new value. transform runs under
// the container's lock and must not call back into the container.
func (v *Value[T]) Update(transform func(T) T) T {
	v.mu.Lock()
	old := v.current
	v.current = transform(old)
	value := v.current
	subscribers := slices.Clone(v.subscribers)
	v.mu.Unlock()

	for _, sub := range subscribers {
		v.safeNotify(sub.fn, old, value)
	}
	return value
}

// Subscribe registers fn for change notifications and returns an id for
// Unsubscribe.
func (v *Value[T]) Subscribe(fn Subscriber[T]) SubscriptionID {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := SubscriptionID(uuid.NewString())
	v.subscribers = append(v.subscribers, subscription[T]{id: id, fn: fn})
	return id
}

// Unsubscribe removes a subscriber by id. It reports whether the
// subscription existed.
func (v *Value[T]) Unsubscribe(id SubscriptionID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := len(v.subscribers)
	v.subscribers = slices.DeleteFunc(v.subscribers, func(sub subscription[T]) bool {
		return sub.id == id
	})
	return len(v.subscribers) < before
}

// SubscriberCount returns the number of active subscriptions.
func (v *Value[T]) SubscriberCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subscribers)
}

func (v *Value[T]) safeNotify(fn Subscriber[T], old, new T) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error(
				"observable subscriber panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn(old, new)
}
