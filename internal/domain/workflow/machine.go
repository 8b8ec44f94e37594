package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed.
type GuardFunc func(ctx context.Context) bool

// StateMachine tracks the current lifecycle state and validates transitions.
type StateMachine interface {
	// State returns the current state.
	State() State

	// CanFire returns true if the trigger is permitted in the current state.
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state
	// if allowed.
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the
	// current state.
	PermittedTriggers() []Trigger
}

type transition struct {
	toState State
	guard   GuardFunc
}

// Builder assembles the transition table for a state machine.
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

// NewBuilder creates an empty state machine builder.
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger][]transition)}
}

// Permit allows the trigger to move from one state to another.
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	return b.PermitIf(from, trigger, to, nil)
}

// PermitIf allows the trigger to move from one state to another when the
// guard passes.
func (b *Builder) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	byTrigger, ok := b.transitions[from]
	if !ok {
		byTrigger = make(map[Trigger][]transition)
		b.transitions[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], transition{toState: to, guard: guard})
	return b
}

// Build creates a state machine instance starting at the given state. The
// transition table is copied so built machines are independent of the
// builder and of each other.
func (b *Builder) Build(initial State) (StateMachine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}
	table := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition{}, ts...)
		}
		table[state] = copied
	}
	return &stateMachine{currentState: initial, transitions: table}, nil
}

type stateMachine struct {
	currentState State
	transitions  map[State]map[Trigger][]transition
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return false
	}
	return len(byTrigger[trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}
	ts := byTrigger[trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}
	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}
	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	byTrigger, ok := m.transitions[m.currentState]
	if !ok {
		return []Trigger{}
	}
	triggers := make([]Trigger, 0, len(byTrigger))
	for trigger, ts := range byTrigger {
		if len(ts) > 0 {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}
