// Package gate decides which view an interactive client shows.
//
// Valid mode graph:
//
//	user ──(active session)──► admin
//	admin ──(sign-out / session ended)──► user
//
// The secret key sequence only opens the credential prompt. It is an
// obscurity shortcut and grants nothing: admin mode requires a session
// reported by the identity provider.
package gate

import "fmt"

// Mode is the top-level view.
type Mode string

const (
	ModeUser  Mode = "user"
	ModeAdmin Mode = "admin"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Mode][]Mode{
	ModeUser:  {ModeAdmin},
	ModeAdmin: {ModeUser},
}

// ParseMode converts a raw string to a Mode, returning an error for unknown
// values.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case ModeUser, ModeAdmin:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to Mode) bool {
	for _, m := range validTransitions[from] {
		if m == to {
			return true
		}
	}
	return false
}
