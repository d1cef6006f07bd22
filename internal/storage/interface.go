package storage

import (
	"context"
	"time"

	"github.com/mcoot/rpsls-go/internal/model"
)

// Storage defines the repository operations over the persistent store.
// Every call acquires and releases its own connection or transaction.
type Storage interface {
	// Player operations
	CreatePlayer(ctx context.Context, username string, isTemp bool, createdAt time.Time) (model.PlayerID, error)
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Session operations
	CreateSession(ctx context.Context, startTime time.Time) (model.SessionID, error)
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)

	// Game operations
	CreateGame(ctx context.Context, sessionID model.SessionID, roundsToWin *int) (model.GameID, error)
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListSessionGames(ctx context.Context, sessionID model.SessionID) ([]*model.Game, error)

	// Membership operations
	AddPlayerToGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	ListGamePlayers(ctx context.Context, gameID model.GameID) ([]model.PlayerGame, error)

	// Round operations
	ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error)
	WinTallies(ctx context.Context, gameID model.GameID, threshold int) ([]model.WinTally, error)

	// UpdateGame runs fn inside one unit of work scoped to a game. Writes made
	// through tx are committed together when fn returns nil and discarded
	// otherwise. Returns model.ErrGameNotFound if the game does not exist.
	UpdateGame(ctx context.Context, gameID model.GameID, fn func(ctx context.Context, tx GameTx) error) error

	// Close releases the underlying connection pool
	Close() error
}

// GameTx is the view of a single game inside a unit of work. Reads observe
// writes already made through the same GameTx.
type GameTx interface {
	Game() *model.Game
	Players(ctx context.Context) ([]model.PlayerGame, error)
	InsertRound(ctx context.Context, round *model.Round) error
	WinTallies(ctx context.Context, threshold int) ([]model.WinTally, error)
	SetWinner(ctx context.Context, winnerID model.PlayerID) error

	// EndSessionIfDecided ends the game's session once every game in it has
	// a winner. Returns false if the session stays active.
	EndSessionIfDecided(ctx context.Context, endTime time.Time) (bool, error)
}
