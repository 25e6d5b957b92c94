// Package flow coordinates an ordered flow of steps against an
// app-supplied navigation stack. The platform stack itself stays outside
// this package: the coordinator keeps the step records, decides what is
// legal, and tells the binding what to push or pop.
package flow

import "errors"

// Step is one stage of a flow, identified by a stable id. The same id may
// not appear twice in an active flow.
type Step interface {
	FlowStepID() string
}

// Stack binds the coordinator to the app's navigation stack. Calls arrive
// outside the coordinator's lock, in the order the transitions were
// accepted.
type Stack interface {
	// Push puts a step on top of the stack.
	Push(step Step)
	// PopTo pops until step is on top.
	PopTo(step Step)
	// PopAll unwinds the whole flow.
	PopAll()
}

// Delegate receives flow lifecycle notifications. All hooks are invoked
// outside the coordinator's lock.
type Delegate interface {
	// FlowDidAdvance fires after a step is pushed; from is nil for the
	// first step.
	FlowDidAdvance(from, to Step)
	// FlowDidReturn fires after the flow moved back to an earlier step.
	FlowDidReturn(to Step)
	// FlowDidFinish fires when the flow ends; completed is false for
	// cancellations.
	FlowDidFinish(completed bool)
}

var (
	// ErrFlowActive is returned by Begin when a flow is already running.
	ErrFlowActive = errors.New("flow is already active")
	// ErrFlowNotActive is returned by transitions on an inactive flow.
	ErrFlowNotActive = errors.New("flow is not active")
	// ErrDuplicateStep is returned when a step id is already part of the
	// active flow.
	ErrDuplicateStep = errors.New("step is already part of the flow")
	// ErrStepNotFound is returned by Return for steps the flow never
	// visited.
	ErrStepNotFound = errors.New("step is not part of the flow")
	// ErrNilStep is returned when a transition is given a nil step.
	ErrNilStep = errors.New("step must not be nil")
)
