package resource_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amund211/conduction/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuildsOneCoordinatorPerKey(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := resource.NewRegistry[string](time.Hour, func(key string) *resource.Coordinator[string] {
		builds.Add(1)
		return resource.NewCoordinator[string](
			resource.WithFetchFunc(func(_ context.Context, _ *int) (*string, error) {
				v := "value for " + key
				return &v, nil
			}),
		)
	})
	defer registry.Close()

	first := registry.Get("player1")
	again := registry.Get("player1")
	other := registry.Get("player2")

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, int32(2), builds.Load())
	assert.Equal(t, 2, registry.Len())
	assert.True(t, registry.Has("player1"))
	assert.False(t, registry.Has("missing"))

	deliveries := make(chan delivery[string], 4)
	first.Get(recordTo(deliveries, "A"))
	d := await(t, deliveries, "delivery from keyed coordinator")
	require.NotNil(t, d.value)
	assert.Equal(t, "value for player1", *d.value)
}

func TestRegistryGetIsSafeConcurrently(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := resource.NewRegistry[string](time.Hour, func(string) *resource.Coordinator[string] {
		builds.Add(1)
		return resource.NewCoordinator[string]()
	})
	defer registry.Close()

	var coordinators sync.Map
	callers := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		callers.Add(1)
		go func() {
			defer callers.Done()
			c := registry.Get("shared")
			coordinators.Store(c, struct{}{})
		}()
	}
	callers.Wait()

	distinct := 0
	coordinators.Range(func(any, any) bool {
		distinct++
		return true
	})
	// Everyone got the same coordinator regardless of how many racing
	// builds were discarded.
	assert.Equal(t, 1, distinct)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryDeleteClosesCoordinator(t *testing.T) {
	t.Parallel()

	q := resource.NewQueue()
	defer q.Close()

	calls := make(chan fetchCall[string], 4)
	deliveries := make(chan delivery[string], 4)
	registry := resource.NewRegistry[string](time.Hour, func(string) *resource.Coordinator[string] {
		return resource.NewCoordinator[string](
			resource.WithQueue[string](q),
			resource.WithFetchFunc(controlledFetch(calls)),
		)
	})
	defer registry.Close()

	c := registry.Get("key")
	c.Get(recordTo(deliveries, "A"))
	call := await(t, calls, "fetch invocation")

	registry.Delete("key")

	assert.False(t, registry.Has("key"))
	assert.Equal(t, 0, registry.Len())

	// Eviction closed the coordinator: the waiter was dropped and the
	// in-flight fetch superseded.
	state := awaitState(t, c)
	assert.Equal(t, resource.StateEmpty, state.Kind())
	call.respond <- fetchResult[string]{value: ptr("late")}
	state = awaitState(t, c)
	assert.Equal(t, resource.StateEmpty, state.Kind())
	requireNoDelivery(t, deliveries)

	// A fresh Get builds a new coordinator under the same key.
	rebuilt := registry.Get("key")
	assert.NotSame(t, c, rebuilt)
}

func TestRegistryExpiresIdleCoordinators(t *testing.T) {
	t.Parallel()

	registry := resource.NewRegistry[string](50*time.Millisecond, nil)
	defer registry.Close()

	registry.Get("idle")
	require.True(t, registry.Has("idle"))

	assert.Eventually(t, func() bool {
		return !registry.Has("idle")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRegistryCloseClosesEverything(t *testing.T) {
	t.Parallel()

	registry := resource.NewRegistry[string](time.Hour, nil)
	registry.Get("a")
	registry.Get("b")
	require.Equal(t, 2, registry.Len())

	registry.Close()
	assert.Equal(t, 0, registry.Len())
}
