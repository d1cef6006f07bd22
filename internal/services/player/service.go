package player

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/rpsls-go/internal/dependencies/clock"
	"github.com/mcoot/rpsls-go/internal/dependencies/random"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

const (
	// GuestNameAlphabet is the character set for generated guest names
	GuestNameAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"
	// GuestNameLength is the length of the random part of a guest name
	GuestNameLength = 6
	// MaxUsernameLength bounds stored usernames
	MaxUsernameLength = 64
)

// Service creates and looks up players
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new player Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "player-service")),
	}
}

// CreatePlayer registers a player. Temporary players created without a
// username get a generated guest name.
func (s *Service) CreatePlayer(ctx context.Context, username string, isTemp bool) (*model.Player, error) {
	username = strings.TrimSpace(username)
	if username == "" && isTemp {
		username = "guest-" + s.random.String(GuestNameLength, GuestNameAlphabet)
	}
	if username == "" || len(username) > MaxUsernameLength {
		return nil, model.ErrInvalidUsername
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.clock.Now()
	id, err := s.storage.CreatePlayer(ctx, username, isTemp, now)
	if err != nil {
		s.logger.Error("failed to create player",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("player created",
		slog.String("player_id", id.String()),
		slog.String("username", username),
		slog.Bool("is_temp", isTemp),
	)

	return &model.Player{ID: id, Username: username, IsTemp: isTemp, CreatedAt: now}, nil
}

// GetPlayer retrieves a player by ID
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.storage.GetPlayer(ctx, id)
}
