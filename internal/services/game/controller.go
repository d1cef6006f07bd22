package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/rpsls-go/internal/dependencies/clock"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// Controller records rounds and runs the game and session lifecycle
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	timeout time.Duration
	logger  *slog.Logger
}

// NewController creates a new game Controller. A positive timeout bounds
// every storage call made on behalf of a request.
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	timeout time.Duration,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "game-controller")),
	}
}

// RecordRoundInput is one round as reported by a caller
type RecordRoundInput struct {
	GameID      model.GameID
	RoundNumber int
	P1Choice    model.Choice
	P2Choice    model.Choice
	WinnerID    *model.PlayerID // nil for a tie
}

// RoundResult is the outcome of recording a round
type RoundResult struct {
	Round *model.Round

	// Closure is set when the round decided the game
	Closure *model.Closure
}

// GameView is a game together with its roster and rounds
type GameView struct {
	Game    *model.Game
	Players []model.PlayerGame
	Rounds  []*model.Round
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CreateGame adds a game to an active session. A nil roundsToWin creates a
// game without automatic win detection.
func (c *Controller) CreateGame(ctx context.Context, sessionID model.SessionID, roundsToWin *int) (*model.Game, error) {
	if roundsToWin != nil && *roundsToWin < 1 {
		return nil, model.ErrInvalidRoundsToWin
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, model.ErrSessionComplete
	}

	gameID, err := c.storage.CreateGame(ctx, sessionID, roundsToWin)
	if err != nil {
		c.logger.Error("failed to create game",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	attrs := []any{
		slog.String("game_id", gameID.String()),
		slog.String("session_id", sessionID.String()),
	}
	if roundsToWin != nil {
		attrs = append(attrs, slog.Int("rounds_to_win", *roundsToWin))
	}
	c.logger.Info("game created", attrs...)

	return &model.Game{ID: gameID, SessionID: sessionID, RoundsToWin: roundsToWin}, nil
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.storage.GetGame(ctx, gameID)
}

// GetGameView retrieves a game with its players and rounds
func (c *Controller) GetGameView(ctx context.Context, gameID model.GameID) (*GameView, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := c.storage.ListGamePlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	rounds, err := c.storage.ListRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return &GameView{Game: game, Players: players, Rounds: rounds}, nil
}

// ListGamePlayers returns a game's members in seat order
func (c *Controller) ListGamePlayers(ctx context.Context, gameID model.GameID) ([]model.PlayerGame, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.storage.ListGamePlayers(ctx, gameID)
}

// ListRounds returns a game's rounds ordered by round number
func (c *Controller) ListRounds(ctx context.Context, gameID model.GameID) ([]*model.Round, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.storage.ListRounds(ctx, gameID)
}

// AddPlayerToGame seats a player in an undecided game. The store rejects
// a decided game in the same write that assigns the seat.
func (c *Controller) AddPlayerToGame(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.PlayerGame, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.storage.AddPlayerToGame(ctx, gameID, playerID); err != nil {
		return nil, err
	}

	players, err := c.storage.ListGamePlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if p.PlayerID == playerID {
			c.logger.Info("player joined game",
				slog.String("game_id", gameID.String()),
				slog.String("player_id", playerID.String()),
				slog.Int("seat", p.Seat),
			)
			return &p, nil
		}
	}
	return nil, model.ErrNotInGame
}

// RecordRound appends a round and, in the same unit of work, evaluates the
// win condition and closes the game if it has been won.
func (c *Controller) RecordRound(ctx context.Context, in RecordRoundInput) (*RoundResult, error) {
	winner := in.WinnerID
	return c.record(ctx, in, func([]model.PlayerGame) (*model.PlayerID, error) {
		return winner, nil
	})
}

// PlayRound records a round whose winner is adjudicated from the choices:
// seat 1 plays p1Choice and seat 2 plays p2Choice.
func (c *Controller) PlayRound(ctx context.Context, gameID model.GameID, roundNumber int, p1Choice, p2Choice model.Choice) (*RoundResult, error) {
	in := RecordRoundInput{
		GameID:      gameID,
		RoundNumber: roundNumber,
		P1Choice:    p1Choice,
		P2Choice:    p2Choice,
	}
	return c.record(ctx, in, func(players []model.PlayerGame) (*model.PlayerID, error) {
		outcome, err := model.Adjudicate(p1Choice, p2Choice)
		if err != nil {
			return nil, err
		}
		if len(players) != 2 {
			return nil, model.ErrNotTwoPlayerGame
		}
		switch outcome {
		case model.OutcomePlayer1:
			return &players[0].PlayerID, nil
		case model.OutcomePlayer2:
			return &players[1].PlayerID, nil
		default:
			return nil, nil
		}
	})
}

// winnerFunc picks the round winner from the game roster in seat order
type winnerFunc func(players []model.PlayerGame) (*model.PlayerID, error)

func (c *Controller) record(ctx context.Context, in RecordRoundInput, pickWinner winnerFunc) (*RoundResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var result *RoundResult
	err := c.storage.UpdateGame(ctx, in.GameID, func(ctx context.Context, tx storage.GameTx) error {
		game := tx.Game()
		if game.IsDecided() {
			return model.ErrGameComplete
		}

		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		winnerID, err := pickWinner(players)
		if err != nil {
			return err
		}

		round := &model.Round{
			GameID:      in.GameID,
			RoundNumber: in.RoundNumber,
			P1Choice:    in.P1Choice,
			P2Choice:    in.P2Choice,
			WinnerID:    winnerID,
		}
		if err := round.Validate(); err != nil {
			return err
		}
		if winnerID != nil && !isMember(players, *winnerID) {
			return model.ErrNotInGame
		}

		if err := tx.InsertRound(ctx, round); err != nil {
			return err
		}
		result = &RoundResult{Round: round}

		gameWinner, err := evaluate(ctx, game, tx.WinTallies)
		if err != nil || gameWinner == nil {
			return err
		}

		closure, err := c.close(ctx, tx, *gameWinner)
		if err != nil {
			return err
		}
		result.Closure = closure
		return nil
	})
	if err != nil {
		c.logger.Warn("round not recorded",
			slog.String("game_id", in.GameID.String()),
			slog.Int("round_number", in.RoundNumber),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	attrs := []any{
		slog.String("game_id", in.GameID.String()),
		slog.Int("round_number", in.RoundNumber),
		slog.String("p1_choice", string(in.P1Choice)),
		slog.String("p2_choice", string(in.P2Choice)),
	}
	if result.Round.WinnerID != nil {
		attrs = append(attrs, slog.String("winner_id", result.Round.WinnerID.String()))
	}
	c.logger.Info("round recorded", attrs...)
	c.logClosure(result.Closure)

	return result, nil
}

// EvaluateWinner reports the player who has reached the game's win
// threshold, or nil if nobody has. It does not modify the game.
func (c *Controller) EvaluateWinner(ctx context.Context, gameID model.GameID) (*model.PlayerID, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return evaluate(ctx, game, func(ctx context.Context, threshold int) ([]model.WinTally, error) {
		return c.storage.WinTallies(ctx, gameID, threshold)
	})
}

type tallyFunc func(ctx context.Context, threshold int) ([]model.WinTally, error)

func evaluate(ctx context.Context, game *model.Game, tallies tallyFunc) (*model.PlayerID, error) {
	threshold, ok := game.Threshold()
	if !ok {
		return nil, nil
	}
	qualifying, err := tallies(ctx, threshold)
	if err != nil {
		return nil, err
	}
	winner, ok := model.FirstToThreshold(qualifying)
	if !ok {
		return nil, nil
	}
	return &winner, nil
}

// CloseGame records winnerID as the game's winner and ends the session if
// this was its last undecided game.
func (c *Controller) CloseGame(ctx context.Context, gameID model.GameID, winnerID model.PlayerID) (*model.Closure, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var closure *model.Closure
	err := c.storage.UpdateGame(ctx, gameID, func(ctx context.Context, tx storage.GameTx) error {
		if tx.Game().IsDecided() {
			return model.ErrGameComplete
		}
		players, err := tx.Players(ctx)
		if err != nil {
			return err
		}
		if !isMember(players, winnerID) {
			return model.ErrNotInGame
		}

		closure, err = c.close(ctx, tx, winnerID)
		return err
	})
	if err != nil {
		c.logger.Warn("game not closed",
			slog.String("game_id", gameID.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logClosure(closure)
	return closure, nil
}

func (c *Controller) close(ctx context.Context, tx storage.GameTx, winnerID model.PlayerID) (*model.Closure, error) {
	now := c.clock.Now()
	if err := tx.SetWinner(ctx, winnerID); err != nil {
		return nil, err
	}
	ended, err := tx.EndSessionIfDecided(ctx, now)
	if err != nil {
		return nil, err
	}

	game := tx.Game()
	return &model.Closure{
		GameID:       game.ID,
		WinnerID:     winnerID,
		SessionID:    game.SessionID,
		ClosedAt:     now,
		SessionEnded: ended,
	}, nil
}

func (c *Controller) logClosure(closure *model.Closure) {
	if closure == nil {
		return
	}
	c.logger.Info("game closed",
		slog.String("game_id", closure.GameID.String()),
		slog.String("winner_id", closure.WinnerID.String()),
		slog.String("session_id", closure.SessionID.String()),
		slog.Bool("session_ended", closure.SessionEnded),
	)
}

func isMember(players []model.PlayerGame, playerID model.PlayerID) bool {
	for _, p := range players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}
