package game

import "fmt"

// GameState is the phase of a single game session.
type GameState int

const (
	StateMenu GameState = iota
	StateReady
	StateDrop
	StateLose
)

func (s GameState) String() string {
	switch s {
	case StateMenu:
		return "MENU"
	case StateReady:
		return "READY"
	case StateDrop:
		return "DROP"
	case StateLose:
		return "LOSE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets states travel as their names in JSON payloads.
func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameState) UnmarshalText(b []byte) error {
	for _, st := range []GameState{StateMenu, StateReady, StateDrop, StateLose} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", b)
}

// LossReason explains why a round ended.
type LossReason string

const (
	ReasonOverflow LossReason = "overflow"
	ReasonTampered LossReason = "tampered"
)
