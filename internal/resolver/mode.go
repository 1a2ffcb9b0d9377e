package resolver

import (
	"fmt"
	"strings"
)

// Mode selects how the current IP address is determined.
type Mode string

const (
	// ModeDirect queries public IP-echo services over HTTP.
	ModeDirect Mode = "direct"

	// ModeDelegate resolves a hostname maintained by another dynamic DNS service.
	ModeDelegate Mode = "delegate"

	// ModeStatic uses a fixed, configured address.
	ModeStatic Mode = "static"
)

// ValidModes lists all valid resolver modes.
var ValidModes = []Mode{ModeDirect, ModeDelegate, ModeStatic}

// ParseMode parses a string into a Mode.
// Returns ModeDirect if the input is empty (default).
func ParseMode(s string) (Mode, error) {
	if strings.TrimSpace(s) == "" {
		return ModeDirect, nil
	}

	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid resolver mode %q: must be one of direct, delegate, static", s)
	}
	return mode, nil
}

// IsValid returns true if the mode is known.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDirect, ModeDelegate, ModeStatic:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}
