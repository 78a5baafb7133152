package statemachine

import (
	"fmt"
)

// Option configures a state machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E comparable] func(*transitionConfig[S, E])

type transitionConfig[S, E comparable] struct {
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// New creates a new state machine with the given initial state and options.
func New[S, E comparable](initialState S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := newMachine[S, E](initialState)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew creates a new state machine and panics if any option fails to apply.
func MustNew[S, E comparable](initialState S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single transition to the state machine.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		cfg := &transitionConfig[S, E]{}
		for _, opt := range opts {
			opt(cfg)
		}

		return m.AddTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithListener registers a callback invoked after every committed transition.
func WithListener[S, E comparable](l Listener[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if l == nil {
			return fmt.Errorf("listener cannot be nil")
		}
		m.listeners = append(m.listeners, l)
		return nil
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard[S, E comparable](guard Guard[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction[S, E comparable](action Action[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}
