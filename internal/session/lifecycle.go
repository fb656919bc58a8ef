package session

import (
	"fmt"

	"github.com/susu3304/smashmate/internal/domain"
)

var transitions = map[domain.SessionStatus][]domain.SessionStatus{
	domain.SessionPending:   {domain.SessionConfirmed, domain.SessionCancelled},
	domain.SessionConfirmed: {domain.SessionCompleted, domain.SessionCancelled},
}

// CanTransition reports whether a session may move from one status to another.
// Completed and cancelled are terminal.
func CanTransition(from, to domain.SessionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to domain.SessionStatus) error {
	switch to {
	case domain.SessionPending, domain.SessionConfirmed, domain.SessionCompleted, domain.SessionCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}
