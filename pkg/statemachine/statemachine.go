package statemachine

import (
	"context"
)

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Listener observes committed transitions. It runs after the state has changed,
// outside the machine lock, so it may read the machine but must not block on it.
type Listener[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before state change
}

// StateMachine defines the core finite state machine operations.
type StateMachine[S, E comparable] interface {
	Current() S
	Is(states ...S) bool
	AddTransition(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) error
	Fire(ctx context.Context, event E, data any) error
	CanFire(ctx context.Context, event E, data any) bool
	Reset()
}
