package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rpsls-go/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidChoice       = "INVALID_CHOICE"
	CodeInvalidRound        = "INVALID_ROUND"
	CodeInvalidUsername     = "INVALID_USERNAME"
	CodeUnknownStrategy     = "UNKNOWN_STRATEGY"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeGameNotFound        = "GAME_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateRound      = "DUPLICATE_ROUND"
	CodeAlreadyInGame       = "ALREADY_IN_GAME"
	CodeNotInGame           = "NOT_IN_GAME"
	CodeGameComplete        = "GAME_COMPLETE"
	CodeSessionComplete     = "SESSION_COMPLETE"
	CodeNotTwoPlayerGame    = "NOT_TWO_PLAYER_GAME"
	CodeSeatUnavailable     = "SEAT_UNAVAILABLE"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeTimeout             = "TIMEOUT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors, most specific first
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}

	case errors.Is(err, model.ErrInvalidChoice):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidChoice, "Choice must be one of Rock, Paper, Scissors, Lizard, Spock"}}
	case errors.Is(err, model.ErrInvalidRoundNumber):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRound, "Round number must be positive"}}
	case errors.Is(err, model.ErrInvalidRoundWinner):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRound, "A tied round cannot have a winner"}}
	case errors.Is(err, model.ErrInvalidRoundsToWin):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Rounds to win must be positive"}}
	case errors.Is(err, model.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Username is required"}}
	case errors.Is(err, model.ErrUnknownStrategy):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownStrategy, "Unknown opponent strategy"}}

	case errors.Is(err, model.ErrDuplicateRound):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateRound, "Round number already recorded for this game"}}
	case errors.Is(err, model.ErrAlreadyInGame):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInGame, "Player is already in this game"}}
	case errors.Is(err, model.ErrNotInGame):
		return &httpError{http.StatusConflict, APIError{CodeNotInGame, "Player is not in this game"}}
	case errors.Is(err, model.ErrGameComplete):
		return &httpError{http.StatusConflict, APIError{CodeGameComplete, "Game already has a winner"}}
	case errors.Is(err, model.ErrSessionComplete):
		return &httpError{http.StatusConflict, APIError{CodeSessionComplete, "Session has already ended"}}
	case errors.Is(err, model.ErrNotTwoPlayerGame):
		return &httpError{http.StatusConflict, APIError{CodeNotTwoPlayerGame, "Game needs exactly two players"}}
	case errors.Is(err, model.ErrSeatUnavailable):
		return &httpError{http.StatusConflict, APIError{CodeSeatUnavailable, "The computer joins as seat 2 after one player"}}
	case errors.Is(err, model.ErrConstraintViolation):
		return &httpError{http.StatusConflict, APIError{CodeConstraintViolation, "Constraint violation"}}

	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Storage did not respond in time"}}
	case errors.Is(err, model.ErrStorage):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Storage unavailable"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
