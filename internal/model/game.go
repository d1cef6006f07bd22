package model

import (
	"strconv"
	"time"
)

// GameID uniquely identifies a game
type GameID int64

func (id GameID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Game is a match decided once a player accumulates RoundsToWin round wins
type Game struct {
	ID        GameID
	SessionID SessionID

	// RoundsToWin is nil when the game has no automatic win detection
	RoundsToWin *int

	// WinnerID is nil until the game is decided
	WinnerID *PlayerID
}

// IsDecided returns true once a winner has been recorded
func (g *Game) IsDecided() bool {
	return g.WinnerID != nil
}

// Threshold returns the rounds-to-win threshold, if any
func (g *Game) Threshold() (int, bool) {
	if g.RoundsToWin == nil {
		return 0, false
	}
	return *g.RoundsToWin, true
}

// PlayerGame records a player's membership in a game.
// Seat is the 1-based join order; seat 1 plays the P1 choice.
type PlayerGame struct {
	GameID   GameID
	PlayerID PlayerID
	Seat     int
}

// Closure is the result of deciding a game
type Closure struct {
	GameID       GameID
	WinnerID     PlayerID
	SessionID    SessionID
	ClosedAt     time.Time
	SessionEnded bool // false if the session still has undecided games
}
