package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine is a thread-safe in-memory state machine.
// Transitions are indexed as [from][event][]Transition for O(1) lookups.
type Machine[S, E comparable] struct {
	initialState S
	currentState S
	transitions  map[S]map[E][]Transition[S, E]
	listeners    []Listener[S, E]
	mu           sync.RWMutex
}

func newMachine[S, E comparable](initialState S) *Machine[S, E] {
	return &Machine[S, E]{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[S]map[E][]Transition[S, E]),
	}
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if s == m.currentState {
			return true
		}
	}
	return false
}

func (m *Machine[S, E]) AddTransition(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]Transition[S, E])
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	m.transitions[from][event] = append(m.transitions[from][event], Transition[S, E]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Fire applies the first transition for event whose guards all pass.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()

	from := m.currentState
	transitions := m.transitions[from][event]
	if len(transitions) == 0 {
		m.mu.Unlock()
		return NewErrNoTransitionAvailable(from, event)
	}

	valid := m.match(ctx, transitions, event, data)
	if valid == nil {
		m.mu.Unlock()
		return NewErrTransitionRejected(from, event)
	}

	// Execute actions before state change; any failure aborts transition
	for _, action := range valid.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, valid.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.currentState = valid.To
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, from, valid.To, event)
	}
	return nil
}

func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	transitions := m.transitions[m.currentState][event]
	if len(transitions) == 0 {
		return false
	}
	return m.match(ctx, transitions, event, data) != nil
}

// Reset returns the machine to its initial state without notifying listeners.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = m.initialState
}

// match returns the first transition with passing guards (enables priority ordering).
// The caller must hold m.mu.
func (m *Machine[S, E]) match(ctx context.Context, transitions []Transition[S, E], event E, data any) *Transition[S, E] {
	for i, t := range transitions {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.currentState, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &transitions[i]
		}
	}
	return nil
}

var _ StateMachine[string, string] = (*Machine[string, string])(nil)
