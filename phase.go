// Package lightsync implements a two-phase traffic light that toggles itself
// on a randomized timer, and the blocking handoff queue it uses to publish
// phase changes to waiting goroutines.
package lightsync

import (
	"fmt"
	"strings"
)

// A Phase is one of the two states of a traffic light.
// The zero Phase is Red.
type Phase int

const (
	Red   Phase = iota // stop
	Green              // go
)

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == Red {
		return Green
	}
	return Red
}

// Valid reports whether p is Red or Green.
func (p Phase) Valid() bool { return p == Red || p == Green }

func (p Phase) String() string {
	switch p {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ParsePhase returns the Phase named by s, ignoring case.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	default:
		return Red, fmt.Errorf("unknown phase %q", s)
	}
}
