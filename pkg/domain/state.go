package domain

import (
	"fmt"
	"strings"
)

// ResourceState is the progress marker of a single resource.
//
// The first four values form an ordered ladder used for cascade comparisons.
// StateSkipped and StateCancelled are terminal markers outside the ladder.
type ResourceState int

const (
	StateUnfulfilled ResourceState = iota
	StatePartiallyFulfilled
	StateFulfilled
	StateConfirmed
	StateSkipped
	StateCancelled
)

var stateNames = map[ResourceState]string{
	StateUnfulfilled:        "unfulfilled",
	StatePartiallyFulfilled: "partially_fulfilled",
	StateFulfilled:          "fulfilled",
	StateConfirmed:          "confirmed",
	StateSkipped:            "skipped",
	StateCancelled:          "cancelled",
}

// String returns the snake_case name of the state.
func (s ResourceState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// OnLadder reports whether the state takes part in cascade comparisons.
func (s ResourceState) OnLadder() bool {
	return s >= StateUnfulfilled && s <= StateConfirmed
}

// Below reports whether s ranks strictly below other on the ladder.
// It is false whenever either state is a terminal marker.
func (s ResourceState) Below(other ResourceState) bool {
	return s.OnLadder() && other.OnLadder() && s < other
}

// ParseState converts a state name into a ResourceState.
func ParseState(name string) (ResourceState, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == key {
			return s, nil
		}
	}
	return StateUnfulfilled, fmt.Errorf("unknown resource state %q", name)
}

// MarshalText encodes the state by name so snapshots stay readable.
func (s ResourceState) MarshalText() ([]byte, error) {
	if _, ok := stateNames[s]; !ok {
		return nil, fmt.Errorf("unknown resource state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *ResourceState) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
