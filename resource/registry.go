package resource

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Registry keys independent coordinators by resource identity and retires
// the ones nobody has asked for in a full idle period. The idle clock
// resets on every Get, so actively used coordinators live indefinitely.
// Evicted coordinators are closed.
type Registry[R any] struct {
	cache *ttlcache.Cache[string, *Coordinator[R]]
	build func(key string) *Coordinator[R]
}

// NewRegistry creates a registry whose coordinators are built on demand by
// build and closed after idleTTL without a Get. A nil build yields plain
// coordinators with no fetch function configured.
func NewRegistry[R any](idleTTL time.Duration, build func(key string) *Coordinator[R]) *Registry[R] {
	if build == nil {
		build = func(string) *Coordinator[R] {
			return NewCoordinator[R]()
		}
	}

	coordinatorCache := ttlcache.New[string, *Coordinator[R]](
		ttlcache.WithTTL[string, *Coordinator[R]](idleTTL),
	)
	coordinatorCache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *Coordinator[R]]) {
		item.Value().Close()
	})
	go coordinatorCache.Start()

	return &Registry[R]{
		cache: coordinatorCache,
		build: build,
	}
}

// Get returns the coordinator for key, building it if absent. Concurrent
// callers for the same missing key receive the same coordinator; the
// losing build is closed before it is ever used.
func (r *Registry[R]) Get(key string) *Coordinator[R] {
	if item := r.cache.Get(key); item != nil {
		return item.Value()
	}

	coordinator := r.build(key)
	item, existed := r.cache.GetOrSet(key, coordinator)
	if existed {
		coordinator.Close()
	}
	return item.Value()
}

// Has reports whether a live coordinator exists for key without resetting
// its idle clock.
func (r *Registry[R]) Has(key string) bool {
	return r.cache.Has(key)
}

// Delete evicts and closes the coordinator for key, if any.
func (r *Registry[R]) Delete(key string) {
	r.cache.Delete(key)
}

// Len returns the number of live coordinators.
func (r *Registry[R]) Len() int {
	return r.cache.Len()
}

// Close stops the expiration loop and closes every remaining coordinator.
// The registry must not be used afterwards.
func (r *Registry[R]) Close() {
	r.cache.Stop()
	r.cache.DeleteAll()
}
