package resource

import (
	"fmt"

	"github.com/google/uuid"
)

// ObserverID identifies one logical requester of the resource value.
// IDs are opaque, globally unique and comparable.
type ObserverID string

// FetchID identifies one fetch generation. Every (re)started fetch gets a
// fresh id so results from superseded fetches can be told apart and dropped.
type FetchID string

// NewObserverID mints an observer id. Get mints one automatically when the
// caller does not supply its own.
func NewObserverID() ObserverID {
	return ObserverID(uuid.NewString())
}

func newFetchID() FetchID {
	return FetchID(uuid.NewString())
}

// StateKind enumerates the coordinator lifecycle states.
type StateKind int

const (
	// StateEmpty means no value is cached and no fetch is in flight.
	StateEmpty StateKind = iota
	// StateFetching means a fetch generation is outstanding.
	StateFetching
	// StateFetched means a value (possibly nil) has been produced and cached.
	StateFetched
)

func (k StateKind) String() string {
	switch k {
	case StateEmpty:
		return "empty"
	case StateFetching:
		return "fetching"
	case StateFetched:
		return "fetched"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// State is a snapshot of a coordinator's lifecycle state. Exactly one kind
// is active at a time; the payload accessors are only meaningful for the
// kind they belong to.
type State[R any] struct {
	kind     StateKind
	fetchID  FetchID
	priority *int
	value    *R
}

func emptyState[R any]() State[R] {
	return State[R]{kind: StateEmpty}
}

func fetchingState[R any](fetchID FetchID, priority *int) State[R] {
	return State[R]{kind: StateFetching, fetchID: fetchID, priority: priority}
}

func fetchedState[R any](value *R) State[R] {
	return State[R]{kind: StateFetched, value: value}
}

// Kind returns the active state kind.
func (s State[R]) Kind() StateKind {
	return s.kind
}

// FetchID returns the outstanding fetch generation id.
// It is only set while the state is StateFetching.
func (s State[R]) FetchID() (FetchID, bool) {
	if s.kind != StateFetching {
		return "", false
	}
	return s.fetchID, true
}

// Priority returns the aggregate priority of the outstanding fetch: the
// maximum priority among waiting observers. It is absent when the state is
// not StateFetching or when no observers are waiting.
func (s State[R]) Priority() (int, bool) {
	if s.kind != StateFetching || s.priority == nil {
		return 0, false
	}
	return *s.priority, true
}

// Value returns the cached value when the state is StateFetched. A nil
// value from a fetched state means "successfully fetched nothing", which is
// distinct from StateEmpty.
func (s State[R]) Value() *R {
	if s.kind != StateFetched {
		return nil
	}
	return s.value
}
