// Package statemachine provides a small, generic, concurrency-safe finite state
// machine.
//
// States and events are any comparable types, typically string-based enums:
//
//	type State string
//	type Event string
//
//	const (
//	    Idle       State = "idle"
//	    Connecting State = "connecting"
//	    Start      Event = "start"
//	)
//
//	machine := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Connecting, Start),
//	)
//
//	_ = machine.Fire(context.Background(), Start, nil)
//
// # Guards and Actions
//
// Several transitions may share the same source state and event. Fire picks the
// first one whose guards all pass, which makes guard-based branching possible:
//
//	statemachine.WithTransition(Connected, Reconnecting, Lose,
//	    statemachine.WithGuard(func(ctx context.Context, from State, evt Event, data any) bool {
//	        return data.(bool)
//	    }),
//	),
//	statemachine.WithTransition(Connected, Idle, Lose),
//
// Actions run after the guards succeed and before the state is updated. An
// action error aborts the transition.
//
// # Listeners
//
// Listeners registered with WithListener observe committed transitions. They
// run after the lock is released, so they can safely call Current.
//
// # Error Handling
//
// When Fire returns an error you can inspect it using helper functions:
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
package statemachine
