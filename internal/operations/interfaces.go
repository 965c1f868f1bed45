package operations

import "context"

// StepObserver is notified after every step finishes, in execution order.
// Observers run synchronously before the next step starts.
type StepObserver interface {
	StepFinished(ctx context.Context, step Step, state *StepState)
}

// StepObserverFunc adapts a function to StepObserver
type StepObserverFunc func(ctx context.Context, step Step, state *StepState)

// StepFinished calls f
func (f StepObserverFunc) StepFinished(ctx context.Context, step Step, state *StepState) {
	f(ctx, step, state)
}
