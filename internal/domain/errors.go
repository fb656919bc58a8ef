package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("already exists")
)

// Business-rule violations the client can act on.
var (
	ErrNotBalanced       = errors.New("allocation is not balanced")
	ErrVersionConflict   = errors.New("session was modified by someone else")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTournamentFull    = errors.New("tournament is full")
)
