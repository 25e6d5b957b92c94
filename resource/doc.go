// Package resource coordinates the asynchronous, de-duplicated fetching of
// a single lazily computed value shared by many concurrent observers.
//
// The core type is [Coordinator], which owns the lifecycle of one value of
// generic type R: many observers request it with Get, one fetch runs no
// matter how many ask, and the produced value is delivered to every waiter
// in priority order. Cached values are served directly; Expire, Invalidate
// and Set control re-evaluation and manual completion. A fetch superseded
// by a restart can never deliver a stale result.
//
// All state mutation is serialized on a [Queue], a single-goroutine task
// runner, so the coordinator needs no locks and operations never observe
// each other half-applied. Several coordinators may share one Queue.
//
// [Registry] keys independent coordinators by resource identity and retires
// the ones that have gone unused.
//
// Usage:
//
//	coordinator := resource.NewCoordinator[Profile](
//		resource.WithFetchFunc(fetchProfile),
//	)
//	defer coordinator.Close()
//
//	observer := coordinator.Get(func(profile *Profile) {
//		// runs once the value is available
//	}, resource.WithPriority(5))
//
//	// The observer changed its mind:
//	coordinator.Forget(observer)
package resource
