package game

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[GameState][]GameState{
	StateMenu:  {StateReady, StateLose},
	StateReady: {StateDrop, StateLose},
	StateDrop:  {StateReady, StateLose},
	StateLose:  {StateMenu, StateReady},
}

// Machine holds the session phase and rejects transitions the game does not allow.
type Machine struct {
	state    GameState
	onChange func(from, to GameState)
}

func NewMachine(onChange func(from, to GameState)) *Machine {
	return &Machine{state: StateMenu, onChange: onChange}
}

func (m *Machine) State() GameState {
	return m.state
}

func (m *Machine) Is(s GameState) bool {
	return m.state == s
}

// CanTransition reports whether to is reachable from the current state.
func (m *Machine) CanTransition(to GameState) bool {
	for _, s := range transitions[m.state] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves to the target state.
func (m *Machine) Transition(to GameState) error {
	if !m.CanTransition(to) {
		return fmt.Errorf("%s -> %s: %w", m.state, to, ErrInvalidTransition)
	}
	from := m.state
	m.state = to
	if m.onChange != nil {
		m.onChange(from, to)
	}
	return nil
}
