package model

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by storage or services is one of these
// (checked with errors.Is) or a context error.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStorage             = errors.New("storage failure")
)

// Not found errors
var (
	ErrPlayerNotFound  = fmt.Errorf("player %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	ErrGameNotFound    = fmt.Errorf("game %w", ErrNotFound)
)

// Constraint errors
var (
	ErrDuplicateRound     = fmt.Errorf("%w: round number already recorded for game", ErrConstraintViolation)
	ErrAlreadyInGame      = fmt.Errorf("%w: player is already in game", ErrConstraintViolation)
	ErrNotInGame          = fmt.Errorf("%w: player is not in game", ErrConstraintViolation)
	ErrGameComplete       = fmt.Errorf("%w: game already has a winner", ErrConstraintViolation)
	ErrSessionComplete    = fmt.Errorf("%w: session has already ended", ErrConstraintViolation)
	ErrInvalidRoundNumber = fmt.Errorf("%w: round number must be positive", ErrConstraintViolation)
	ErrInvalidChoice      = fmt.Errorf("%w: invalid choice", ErrConstraintViolation)
	ErrInvalidRoundWinner = fmt.Errorf("%w: round winner does not match choices", ErrConstraintViolation)
	ErrInvalidRoundsToWin = fmt.Errorf("%w: rounds to win must be positive", ErrConstraintViolation)
	ErrInvalidUsername    = fmt.Errorf("%w: username is required", ErrConstraintViolation)
	ErrNotTwoPlayerGame   = fmt.Errorf("%w: game does not have exactly two players", ErrConstraintViolation)
	ErrSeatUnavailable    = fmt.Errorf("%w: computer seat is not available", ErrConstraintViolation)
	ErrUnknownStrategy    = fmt.Errorf("%w: unknown opponent strategy", ErrConstraintViolation)
)

// StorageError wraps a failure from the underlying store
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
