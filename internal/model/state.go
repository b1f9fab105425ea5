package model

import "fmt"

// State is the lifecycle tag of an item inside a container
type State int

const (
	StateNeutral State = iota // Settled, present on both sides
	StateNew                  // Added on the client, not pushed yet
	StateRemoved              // Pending deletion
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNeutral:
		return "Neutral"
	case StateNew:
		return "New"
	case StateRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the state as its tag
func (s State) MarshalText() ([]byte, error) {
	switch s {
	case StateNeutral, StateNew, StateRemoved:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("invalid state %d", int(s))
}

// UnmarshalText decodes a state tag
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Neutral":
		*s = StateNeutral
	case "New":
		*s = StateNew
	case "Removed":
		*s = StateRemoved
	default:
		return fmt.Errorf("unknown state %q", string(text))
	}
	return nil
}
