package resource

import "sync"

// Queue is a serial execution context: tasks run one at a time, in FIFO
// order, on a single goroutine. A task enqueued by another task runs after
// the current task returns, never interleaved with it.
//
// Multiple coordinators may share one Queue to serialize against each other.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewQueue creates a Queue and starts its drain goroutine.
// Call Close to release it.
func NewQueue() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// dispatch enqueues fn without blocking. It reports whether the task was
// accepted; tasks dispatched after Close are dropped.
func (q *Queue) dispatch(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	q.signal()
	return true
}

// Close stops the queue after all previously enqueued tasks have run.
// It does not wait for the drain to finish, so it is safe to call from a
// task running on the queue itself. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.signal()
}

// Done is closed once the queue has fully drained after Close.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		closed := q.closed
		q.mu.Unlock()

		if len(tasks) == 0 {
			if closed {
				return
			}
			// Spurious wakeups just loop back around.
			<-q.wake
			continue
		}

		for _, task := range tasks {
			task()
		}
	}
}
