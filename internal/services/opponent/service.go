package opponent

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/player"
)

const (
	// StrategyRandom plays uniformly random moves
	StrategyRandom = "random"
	// StrategyCounter counters seat 1's previous move
	StrategyCounter = "counter"

	computerSeat = 2
)

// Service plays seat 2 of a game on behalf of the computer
type Service struct {
	games      *game.Controller
	players    *player.Service
	strategies map[string]Strategy
	logger     *slog.Logger
}

// NewService creates a new opponent Service
func NewService(
	games *game.Controller,
	players *player.Service,
	strategies map[string]Strategy,
	logger *slog.Logger,
) *Service {
	return &Service{
		games:      games,
		players:    players,
		strategies: strategies,
		logger:     logger.With(slog.String("component", "opponent-service")),
	}
}

// JoinGame creates a temporary computer player and seats it in the game.
// The computer always plays seat 2, so exactly one player must already be
// seated. The game is checked before the player is created.
func (s *Service) JoinGame(ctx context.Context, gameID model.GameID) (*model.PlayerGame, error) {
	view, err := s.games.GetGameView(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if view.Game.IsDecided() {
		return nil, model.ErrGameComplete
	}
	if len(view.Players) != computerSeat-1 {
		return nil, model.ErrSeatUnavailable
	}

	p, err := s.players.CreatePlayer(ctx, "", true)
	if err != nil {
		return nil, err
	}

	seat, err := s.games.AddPlayerToGame(ctx, gameID, p.ID)
	if err != nil {
		s.logger.Warn("computer player left unseated",
			slog.String("game_id", gameID.String()),
			slog.String("player_id", p.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if seat.Seat != computerSeat {
		s.logger.Warn("computer seated out of turn",
			slog.String("game_id", gameID.String()),
			slog.String("player_id", p.ID.String()),
			slog.Int("seat", seat.Seat),
		)
		return nil, model.ErrSeatUnavailable
	}

	s.logger.Info("computer joined game",
		slog.String("game_id", gameID.String()),
		slog.String("player_id", p.ID.String()),
	)
	return seat, nil
}

// PlayRound records the next round of a two-player game with seat 1's
// choice given and seat 2's choice made by the named strategy.
func (s *Service) PlayRound(ctx context.Context, gameID model.GameID, p1Choice model.Choice, strategy string) (*game.RoundResult, error) {
	history, err := s.games.ListRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}

	strat, ok := s.strategies[strategy]
	if !ok {
		return nil, model.ErrUnknownStrategy
	}
	if !p1Choice.Valid() {
		return nil, model.ErrInvalidChoice
	}

	next := 1
	for _, r := range history {
		if r.RoundNumber >= next {
			next = r.RoundNumber + 1
		}
	}

	p2Choice := strat.Choose(history)
	s.logger.Debug("computer chose",
		slog.String("game_id", gameID.String()),
		slog.String("strategy", strategy),
		slog.String("choice", string(p2Choice)),
	)

	return s.games.PlayRound(ctx, gameID, next, p1Choice, p2Choice)
}

// Strategies lists the registered strategy names in sorted order
func (s *Service) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
