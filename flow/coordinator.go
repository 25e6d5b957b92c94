package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Coordinator drives one flow at a time over a Stack. Bookkeeping is
// mutex-guarded; Stack and Delegate calls happen outside the lock, so they
// may call back into the coordinator.
type Coordinator struct {
	stack    Stack
	delegate Delegate
	logger   *slog.Logger

	mu     sync.RWMutex
	active bool
	steps  []Step
}

// NewCoordinator creates an inactive coordinator bound to stack.
func NewCoordinator(stack Stack, opts ...Option) (*Coordinator, error) {
	if stack == nil {
		return nil, errors.New("flow: stack is required")
	}

	cfg := coordinatorConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Coordinator{
		stack:    stack,
		delegate: cfg.delegate,
		logger:   cfg.logger,
	}, nil
}

// Begin starts the flow at first, pushing it onto the stack. The delegate
// sees FlowDidAdvance with a nil from.
func (c *Coordinator) Begin(first Step) error {
	if first == nil {
		return ErrNilStep
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrFlowActive
	}
	c.active = true
	c.steps = []Step{first}
	c.mu.Unlock()

	c.logger.Debug("flow began", "step", first.FlowStepID())
	c.stack.Push(first)
	if c.delegate != nil {
		c.delegate.FlowDidAdvance(nil, first)
	}
	return nil
}

// Advance pushes next on top of the current step. Step ids are unique
// within a flow; revisiting one is a Return, not an Advance.
func (c *Coordinator) Advance(next Step) error {
	if next == nil {
		return ErrNilStep
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrFlowNotActive
	}
	if c.indexOfLocked(next.FlowStepID()) >= 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateStep, next.FlowStepID())
	}
	from := c.steps[len(c.steps)-1]
	c.steps = append(c.steps, next)
	c.mu.Unlock()

	c.logger.Debug("flow advanced", "from", from.FlowStepID(), "to", next.FlowStepID())
	c.stack.Push(next)
	if c.delegate != nil {
		c.delegate.FlowDidAdvance(from, next)
	}
	return nil
}

// Return pops back to a step the flow already visited. The steps above it
// are dropped from the records and the stack.
func (c *Coordinator) Return(to Step) error {
	if to == nil {
		return ErrNilStep
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrFlowNotActive
	}
	idx := c.indexOfLocked(to.FlowStepID())
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStepNotFound, to.FlowStepID())
	}
	target := c.steps[idx]
	c.steps = c.steps[:idx+1]
	c.mu.Unlock()

	c.logger.Debug("flow returned", "to", target.FlowStepID())
	c.stack.PopTo(target)
	if c.delegate != nil {
		c.delegate.FlowDidReturn(target)
	}
	return nil
}

// StackDidPop reconciles the records after the platform stack popped a
// step on its own, typically a user-driven back navigation. The stack has
// already moved, so nothing is pushed or popped here. Steps the flow does
// not know are ignored; popping the first step cancels the flow.
func (c *Coordinator) StackDidPop(popped Step) {
	if popped == nil {
		return
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	idx := c.indexOfLocked(popped.FlowStepID())
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	if idx == 0 {
		c.active = false
		c.steps = nil
		c.mu.Unlock()

		c.logger.Debug("flow canceled by external pop", "step", popped.FlowStepID())
		if c.delegate != nil {
			c.delegate.FlowDidFinish(false)
		}
		return
	}
	c.steps = c.steps[:idx]
	current := c.steps[idx-1]
	c.mu.Unlock()

	c.logger.Debug("flow reconciled after external pop", "current", current.FlowStepID())
	if c.delegate != nil {
		c.delegate.FlowDidReturn(current)
	}
}

// Finish ends the flow as completed, unwinding the stack.
func (c *Coordinator) Finish() error {
	return c.end(true)
}

// Cancel ends the flow as abandoned, unwinding the stack.
func (c *Coordinator) Cancel() error {
	return c.end(false)
}

func (c *Coordinator) end(completed bool) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrFlowNotActive
	}
	c.active = false
	c.steps = nil
	c.mu.Unlock()

	c.logger.Debug("flow ended", "completed", completed)
	c.stack.PopAll()
	if c.delegate != nil {
		c.delegate.FlowDidFinish(completed)
	}
	return nil
}

// Active reports whether a flow is running.
func (c *Coordinator) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Current returns the step on top of the flow, if any.
func (c *Coordinator) Current() (Step, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.active || len(c.steps) == 0 {
		return nil, false
	}
	return c.steps[len(c.steps)-1], true
}

// Depth returns the number of steps in the active flow.
func (c *Coordinator) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.steps)
}

func (c *Coordinator) indexOfLocked(id string) int {
	return slices.IndexFunc(c.steps, func(step Step) bool {
		return step.FlowStepID() == id
	})
}
